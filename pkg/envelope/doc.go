// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

// Package envelope parses OAGIS BOD envelopes.
//
// An OAGIS document carries a CNTROLAREA with the sender identity, the BSR
// (business service request) verb/noun/revision, and the DATETIMEISO sent
// date, followed by a noun-specific DATAAREA. This package extracts the
// control-area fields every message shares and, for Confirm BODs, the
// nested data-area block referencing the original message under
// confirmation.
//
// Trading partners emit varying namespace prefixes (os:, of:, ns:, or
// none), so all element matching is on local names.
package envelope
