// This file is part of cortexdl.
//
// cortexdl is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// cortexdl is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.

package errors

// error messages used by the builder (stage 1)
const (
	ELFReadError      = "elf: %v"
	ELFMissingSection = "elf: missing section (%v)"

	AsmGenError = "trampoline: %v"

	ToolchainNotFound  = "toolchain: executable not found (%v)"
	ToolchainExitError = "toolchain: %v exited with error: %v"

	ImageEncodeError = "image: encode error: %v"
	ImageDecodeError = "image: decode error: %v"
	ImageTruncated   = "image: truncated image"
)

// error messages used by the loader (stage 2)
const (
	SymbolNotFound = "symbol: unresolved symbol (%v)"

	SVCChainExtendError = "svc: failed to extend dispatch chain for %v"

	AllocatorExhausted = "loader: allocator exhausted"
)
