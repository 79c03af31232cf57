// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

// Package delivery sends rendered OAGIS message text to exactly one
// destination per call.
//
// Destination selection is a fixed priority, not a strategy: a supplied
// output stream wins over a filesystem target, which wins over an HTTP(S)
// URL. Supplying no destination at all is an error, not a silent no-op.
// Exactly one attempt is made per call; retry policy belongs to the caller.
//
// The HTTP channel supports a client certificate and basic-auth
// credentials. Certificate verification can be relaxed for test and
// integration setups via Config.InsecureSkipVerify; production deployments
// must leave it off.
package delivery
