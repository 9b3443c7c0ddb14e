// Package kernel provides the shared value objects of the transport order
// domain.
//
// The package includes:
//   - UUID: the persistent key of transport orders, validated and comparable
//   - LocationPK: a five-segment location coordinate (AREA/AISLE/X/Y/Z)
//
// Both values are immutable and must be created through their constructors.
package kernel
