// Package class builds the per-side descriptors of synchronized classes.
//
// A class is declared once with its own host and remote members plus the
// already built descriptors of its bases. Catalog.Declare merges inherited
// members, synthesizes the missing proxy half of every property and
// emitter, and renders the remote payload. The resulting Descriptor is
// immutable; no type information changes after declaration.
//
//	counter := class.MustDeclare(class.Declaration{
//	    Name: "Counter",
//	    Host: class.Members{
//	        Properties: []class.PropertyDecl{{Name: "count", Default: 0, Normalize: class.Int}},
//	    },
//	})
//
// Ownership is single-writer: each property is authoritative on exactly one
// side. Declaring a property authoritative on both sides, or one name twice
// on a side, fails with ErrAmbiguousOwnership. A proxy that would hide an
// existing plain member is skipped with a warning.
package class
