// Package objects defines the data model shared by every osr package.
//
// This package contains type definitions and static mapping tables only.
// All other internal packages import objects; objects imports nothing
// internal. This keeps the model the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - ObjectType and DistributionType are closed enumerations with an
//     exhaustive mapping between them (DistributionType.ObjectType)
//   - Snapshots of host objects are deep copies (InstalledObject.Clone)
//   - Digests use canonical JSON with domain separation, never fmt output
package objects
