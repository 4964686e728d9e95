// Package ncdiff compares the structure of two NetCDF containers: their
// group hierarchies, dimensions, variables & attributes. Data values are
// never read, only metadata.
//
// Containers are read through the Accessor interface, so ncdiff can compare
// anything that can describe itself as a tree of groups. NewTreeAccessor
// serves an in-memory Group tree, the cdl & snapshot packages build trees from
// ncdump headers & YAML snapshots.
//
// Compare walks both hierarchies from the root, aligning groups, dimensions &
// variables level by level. Names present on both sides are paired directly,
// leftovers are paired by name similarity above a configurable threshold and
// reported as renames. Every entity seen on either side becomes one DiffRecord
// with a status of same, added, removed, changed or renamed.
//
// Reports are sorted by group path, entity kind (groups, then dimensions,
// variables & attributes) and name, so comparing the same pair of containers
// always produces byte-identical output regardless of storage order. This
// makes ncdiff suitable for CI checks against reference files
package ncdiff
