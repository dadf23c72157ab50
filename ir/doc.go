// Package ir provides the in-memory representation of a compiled module:
// types, methods, parameters and the flat stack-machine instruction streams
// that make up method bodies.
//
// The representation is designed for:
//   - Append-only mutation (new methods are added, nothing is reordered)
//   - Stable identity (types and methods are addressed by TypeID/MethodID)
//   - Easy serialization (see image.go for the DTFL container format)
//
// # Arena Model
//
// A Module owns every Type and Method in two arenas. Links between records
// (a method's declaring type, the method it overrides, a type's base type)
// are IDs into those arenas, never owning pointers, so the graph has no
// ownership cycles and can be encoded without special handling.
//
// Types flagged Imported belong to another module. They are present so that
// override chains which start in this module can be walked to their root,
// but they are never candidates for rewriting.
//
// # Instruction Set
//
// Bodies use a small CIL-flavoured instruction set: argument loads, a few
// constants, POP/DUP, direct and virtual calls, and RET. There are no
// branches and no exception regions. AnalyzeStack computes the evaluation
// stack depth of a body and rejects bodies that underflow or return with
// the wrong number of values.
package ir
