package source

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cgalavis/schemakit/schemaerr"
)

// XML returns the Crabel object schema format.
//
// Mapping onto the raw member model:
//   - AttributeTypes/Attribute without AllowedValues become TypeAliases;
//     with AllowedValues they become enum members (Meaning names the value).
//   - Every ObjectDef, at any group depth, becomes a top-level struct member
//     whose Namespace is the "::"-joined group path.
//   - ObjectDef attributes become fields and references become fields of the
//     referenced type; MaxCount > 1 or "unbounded" marks a container.
//   - Members are ordered by Index, then by declaration order.
func XML() Format { return xmlFormat{} }

type xmlFormat struct{}

func (xmlFormat) Name() string         { return "xml" }
func (xmlFormat) Extensions() []string { return []string{".xml"} }

type crabelSchema struct {
	XMLName        xml.Name         `xml:"CrabelObjectSchema"`
	VersionAttr    string           `xml:"Version,attr"`
	NameAttr       string           `xml:"Name,attr"`
	Version        string           `xml:"Version"`
	Name           string           `xml:"Name"`
	Author         string           `xml:"Author"`
	Intent         string           `xml:"Intent"`
	RootNamespace  string           `xml:"RootNamespace"`
	Dependencies   []string         `xml:"Dependencies>Dependency"`
	Templates      []crabelTemplate `xml:"Templates>Template"`
	Groups         []crabelGroup    `xml:"Groups>Group"`
	AttributeTypes []crabelAttrType `xml:"AttributeTypes>Attribute"`
}

type crabelTemplate struct {
	Kind string `xml:"Kind,attr"`
	ID   string `xml:",chardata"`
}

type crabelGroup struct {
	Name        string         `xml:"Name"`
	IsInterface bool           `xml:"IsInterface"`
	Intent      string         `xml:"Intent"`
	Groups      []crabelGroup  `xml:"Groups>Group"`
	ObjectTypes []crabelObject `xml:"ObjectTypes>ObjectDef"`
	Objects     []crabelObject `xml:"ObjectDef"`
}

type crabelObject struct {
	Name       string            `xml:"Name"`
	Intent     string            `xml:"Intent"`
	Template   string            `xml:"Template"`
	Attributes []crabelAttribute `xml:"Attributes>Attribute"`
	References []crabelReference `xml:"References>Object"`
}

type crabelAttribute struct {
	Name     string `xml:"Name"`
	Index    string `xml:"Index"`
	Type     string `xml:"Type"`
	Size     string `xml:"Size"`
	MinValue string `xml:"MinValue"`
	MaxValue string `xml:"MaxValue"`
	Optional bool   `xml:"Optional"`
	Intent   string `xml:"Intent"`
}

type crabelReference struct {
	Name     string `xml:"Name"`
	Index    string `xml:"Index"`
	Type     string `xml:"Type"`
	Intent   string `xml:"Intent"`
	LinkName string `xml:"LinkName"`
	MinCount string `xml:"MinCount"`
	MaxCount string `xml:"MaxCount"`
}

type crabelAttrType struct {
	Name          string               `xml:"Name"`
	Type          string               `xml:"Type"`
	Size          string               `xml:"Size"`
	MinValue      string               `xml:"MinValue"`
	MaxValue      string               `xml:"MaxValue"`
	Intent        string               `xml:"Intent"`
	AllowedValues []crabelAllowedValue `xml:"AllowedValues>AllowedValue"`
}

type crabelAllowedValue struct {
	Value   string `xml:"Value"`
	Meaning string `xml:"Meaning"`
	Intent  string `xml:"Intent"`
}

func (xmlFormat) Decode(data []byte, _ Options) (*Document, error) {
	var cs crabelSchema
	dec := xml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&cs); err != nil {
		return nil, schemaerr.Schema(schemaerr.CodeMalformedDocument).At("/").Wrap(err)
	}
	doc := &Document{
		Name:          firstNonEmpty(cs.Name, cs.NameAttr),
		Version:       strings.TrimSpace(firstNonEmpty(cs.Version, cs.VersionAttr)),
		Author:        strings.TrimSpace(cs.Author),
		Doc:           strings.TrimSpace(cs.Intent),
		RootNamespace: strings.TrimSpace(cs.RootNamespace),
	}
	for _, d := range cs.Dependencies {
		if d = strings.TrimSpace(d); d != "" {
			doc.Dependencies = append(doc.Dependencies, d)
		}
	}
	if len(cs.Templates) > 0 {
		doc.Templates = make(map[string]string, len(cs.Templates))
		for _, t := range cs.Templates {
			doc.Templates[strings.TrimSpace(t.Kind)] = strings.TrimSpace(t.ID)
		}
	}

	root := schemaerr.Root().Field("AttributeTypes")
	for i, at := range cs.AttributeTypes {
		p := root.Index(i)
		size, err := xmlInt(at.Size, p.Field("Size"), 0)
		if err != nil {
			return nil, err
		}
		lo, err := xmlFloat(at.MinValue, p.Field("MinValue"))
		if err != nil {
			return nil, err
		}
		hi, err := xmlFloat(at.MaxValue, p.Field("MaxValue"))
		if err != nil {
			return nil, err
		}
		if len(at.AllowedValues) == 0 {
			doc.Types = append(doc.Types, TypeAlias{
				Pointer: p.String(), Name: strings.TrimSpace(at.Name), Base: strings.TrimSpace(at.Type),
				Size: size, Min: lo, Max: hi, Doc: strings.TrimSpace(at.Intent),
			})
			continue
		}
		enum := Member{
			Pointer: p.String(), Type: "enum", Name: strings.TrimSpace(at.Name),
			ValueType: strings.TrimSpace(at.Type), Doc: strings.TrimSpace(at.Intent),
			HasValues: true, MaxCount: 1,
		}
		for j, av := range at.AllowedValues {
			enum.Values = append(enum.Values, Value{
				Pointer: p.Field("AllowedValues").Index(j).String(),
				Name:    strings.TrimSpace(av.Meaning),
				Value:   strings.TrimSpace(av.Value),
				Doc:     strings.TrimSpace(av.Intent),
			})
		}
		doc.Members = append(doc.Members, enum)
	}

	groups := schemaerr.Root().Field("Groups")
	for i, g := range cs.Groups {
		if err := collectGroup(doc, g, nil, groups.Index(i)); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func collectGroup(doc *Document, g crabelGroup, path []string, at schemaerr.Pointer) error {
	path = append(append([]string{}, path...), strings.TrimSpace(g.Name))
	ns := strings.Join(path, "::")
	objs := append(append([]crabelObject{}, g.ObjectTypes...), g.Objects...)
	for i, o := range objs {
		m, err := objectMember(o, ns, at.Field("ObjectTypes").Index(i))
		if err != nil {
			return err
		}
		doc.Members = append(doc.Members, m)
	}
	for i, sub := range g.Groups {
		if err := collectGroup(doc, sub, path, at.Field("Groups").Index(i)); err != nil {
			return err
		}
	}
	return nil
}

type indexed struct {
	index int
	order int
	m     Member
}

func objectMember(o crabelObject, ns string, at schemaerr.Pointer) (Member, error) {
	m := Member{
		Pointer: at.String(), Type: "struct", Name: strings.TrimSpace(o.Name),
		Namespace: ns, Doc: strings.TrimSpace(o.Intent), Template: strings.TrimSpace(o.Template),
		MaxCount: 1,
	}
	var fields []indexed
	for i, a := range o.Attributes {
		p := at.Field("Attributes").Index(i)
		idx, err := xmlInt(a.Index, p.Field("Index"), 0)
		if err != nil {
			return m, err
		}
		size, err := xmlInt(a.Size, p.Field("Size"), 0)
		if err != nil {
			return m, err
		}
		lo, err := xmlFloat(a.MinValue, p.Field("MinValue"))
		if err != nil {
			return m, err
		}
		hi, err := xmlFloat(a.MaxValue, p.Field("MaxValue"))
		if err != nil {
			return m, err
		}
		fields = append(fields, indexed{index: idx, order: len(fields), m: Member{
			Pointer: p.String(), Type: strings.TrimSpace(a.Type), Name: strings.TrimSpace(a.Name),
			Doc: strings.TrimSpace(a.Intent), Size: size, Min: lo, Max: hi, Optional: a.Optional,
			MaxCount: 1,
		}})
	}
	for i, r := range o.References {
		p := at.Field("References").Index(i)
		idx, err := xmlInt(r.Index, p.Field("Index"), 0)
		if err != nil {
			return m, err
		}
		minCount, err := xmlInt(r.MinCount, p.Field("MinCount"), 0)
		if err != nil {
			return m, err
		}
		maxCount := 1
		switch mc := strings.TrimSpace(r.MaxCount); strings.ToLower(mc) {
		case "":
		case "unbounded", "*", "-1":
			maxCount = -1
		default:
			if maxCount, err = xmlInt(mc, p.Field("MaxCount"), 1); err != nil {
				return m, err
			}
		}
		name := strings.TrimSpace(r.Name)
		if name == "" {
			name = strings.TrimSpace(r.LinkName)
		}
		fields = append(fields, indexed{index: idx, order: len(fields), m: Member{
			Pointer: p.String(), Type: strings.TrimSpace(r.Type), Name: name,
			Doc: strings.TrimSpace(r.Intent), MinCount: minCount, MaxCount: maxCount,
			Optional: minCount == 0 && maxCount == 1,
		}})
	}
	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].index != fields[j].index {
			return fields[i].index < fields[j].index
		}
		return fields[i].order < fields[j].order
	})
	for _, f := range fields {
		m.Members = append(m.Members, f.m)
	}
	return m, nil
}

func (xmlFormat) Sniff(data []byte) bool {
	var probe struct {
		XMLName     xml.Name
		VersionAttr string `xml:"Version,attr"`
		Version     string `xml:"Version"`
	}
	if err := xml.Unmarshal(data, &probe); err != nil {
		return false
	}
	if probe.XMLName.Local != "CrabelObjectSchema" {
		return false
	}
	return plausibleVersion(strings.TrimSpace(firstNonEmpty(probe.Version, probe.VersionAttr)))
}

func xmlInt(s string, at schemaerr.Pointer, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, at.Schema(schemaerr.CodeMalformedDocument, "value", s).Wrap(err)
	}
	return n, nil
}

func xmlFloat(s string, at schemaerr.Pointer) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, at.Schema(schemaerr.CodeMalformedDocument, "value", s).Wrap(fmt.Errorf("parse %q: %w", s, err))
	}
	return &f, nil
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
