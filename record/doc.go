// Package record defines the fixed-size binary trace record, its codec,
// and the fixed-capacity buffer the tracer fills.
//
// Every record is exactly Size (24) bytes on the wire:
//
//	offset  size  field
//	0       1     operation
//	1       1     padding (zero)
//	2       2     reserved (zero)
//	4       8     timestamp, microseconds
//	12      4     arg1
//	16      4     arg2
//	20      4     arg3
//
// Multi-byte fields use the native byte order of the build target, so a
// trace is readable on the machine that produced it but carries no
// cross-target compatibility guarantee. Addresses are narrowed to 32
// bits; on 64-bit hosts this is lossy and deliberate.
//
// arg1..arg3 are operation-dependent:
//
//	Init:    arg1=heap base, arg2=heap size, arg3=flags (bit 0: bounds valid)
//	Malloc:  arg1=requested size, arg2=returned address (0 on failure)
//	Free:    arg1=address (0: null free)
//	Realloc: arg1=old address (0: malloc-like), arg2=new size (0: free-like),
//	         arg3=returned address (0 on failure)
package record
