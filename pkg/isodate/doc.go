// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

// Package isodate implements the OAGIS DATETIMEISO timestamp format.
//
// The format is ISO-8601-like with four fractional-second digits, a literal
// 'Z' separator, and a four-digit numeric offset:
//
//	2024-01-01T10:00:00.0000Z+0500
//
// Some trading partners omit the offset and end at the literal 'Z', so
// parsing falls back to the no-offset variant before reporting an error.
package isodate
