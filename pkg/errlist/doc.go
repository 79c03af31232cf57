// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

// Package errlist provides the ordered error accumulation used throughout
// OAGIS message processing.
//
// OAGIS processing never aborts on the first problem: a single envelope can
// carry several confirmation entries that each fail independently, and the
// response must report all of them. Handlers therefore append tagged
// entries to a List as they go and decide success by whether the list is
// empty at the end.
//
// Entry order is order of occurrence and is preserved through merges, so a
// returned error sequence reads as a trace of the request.
package errlist
