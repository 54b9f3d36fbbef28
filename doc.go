// Package voxmesh turns voxel volumes into triangle meshes.
//
// The meshers live in package mesher and read any field.Field. This package
// holds what callers share across them: algorithm selection through Config and
// the Logger used by the chunk manager and the command line tool.
package voxmesh
