// Package schemakit loads declarative object schemas and derives the class
// descriptors used by the payload converters.
//
// A schema document (JSON, YAML or Crabel XML) declares a version, a tree of
// members (structs, unions, enums, arrays and fields) and glob patterns
// naming the documents it depends on. A Registry loads a root document and,
// recursively, its dependencies, then expands every document's dependency
// set to its transitive closure.
//
// Layout:
//   - catalog: built-in scalar types and their binary widths.
//   - source: format decoding into raw documents.
//   - convert, convert/xmlconv, convert/jsonconv, convert/structconv: payload
//     converters driven by a ClassDescriptor.
//   - jsonschema: JSON Schema export of converter classes.
//   - schemaerr: the error model shared by every package.
//   - cmd/schemakit: the command-line front end.
//
// Typical usage:
//
//	reg := schemakit.NewRegistry(schemakit.WithCyclePolicy(schemakit.CycleError))
//	doc, err := reg.Load("schemas/orders.json")
//	m, ok := doc.FindMember("Order::price")
//
//	class, err := reg.Class(doc, "Order")
//	obj, err := xmlconv.New().ToObject(payload, class)
//	wire, err := structconv.New(0).FromObject(obj, class)
package schemakit
