// Package parser extracts image references pinned in embedded Dockerfiles,
// so default images can be bumped by editing a single FROM line.
package parser
