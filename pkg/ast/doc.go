// Package ast defines the dialect-neutral statement model shared by all
// SQL parsers. Parsers translate their native trees into tagged Statement
// values at the boundary; everything downstream dispatches on Statement.Kind
// rather than on tree shape, so adding a dialect never touches the lineage
// core.
package ast
