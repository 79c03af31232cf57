// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package gooagis implements inbound and outbound handling for OAGIS-format
B2B business documents exchanged between trading partners.

# Overview

go-oagis is the message dispatch and lifecycle engine for OAGIS Business
Object Documents (BODs): purchase-order acknowledgements, shipment notices,
inventory syncs, and Confirm BODs. It parses the control area of an arriving
XML envelope, deduplicates and routes it to the correct business handler by
its BSR verb/noun taxonomy, tracks every message through an explicit
processing-status state machine, correlates confirmation responses back to
the message they report on, and delivers outbound documents through a
stream, filesystem, or HTTP(S) channel with a fixed fallback order.

# Package Structure

The library is organized into the following packages:

	github.com/sirosfoundation/go-oagis/pkg/envelope  - OAGIS envelope parsing (control area, BSR, data area)
	github.com/sirosfoundation/go-oagis/pkg/isodate   - OAGIS ISO-8601 timestamp codec
	github.com/sirosfoundation/go-oagis/pkg/errlist   - ordered error accumulation and reason codes
	github.com/sirosfoundation/go-oagis/pkg/delivery  - stream/file/HTTP delivery channel

Server-side wiring lives under internal/:

	internal/storage  - message record store gateway (MongoDB, in-memory)
	internal/dispatch - inbound dispatcher and Confirm BOD receipt handler
	internal/confirm  - outbound Confirm BOD sender
	internal/config   - YAML configuration
	internal/server   - HTTP receiver for the inbound entry point

# Quick Start

To receive an inbound OAGIS message:

	import (
	    "github.com/sirosfoundation/go-oagis/internal/dispatch"
	    "github.com/sirosfoundation/go-oagis/internal/storage/memory"
	)

	store := memory.NewStore()
	d := dispatch.New(store, dispatch.Routes{
	    ConfirmBOD: dispatch.NewConfirmBODReceiver(store, nil, false),
	}, nil)

	result := d.Receive(ctx, rawXML)
	if !result.Success {
	    for _, e := range result.Errors {
	        log.Printf("%s: %s", e.ReasonCode, e.Description)
	    }
	}

# Message Lifecycle

Outbound records advance OAGMP_TRIGGERED -> OAGMP_OGEN_SUCCESS -> OAGMP_SENT;
inbound records advance OAGMP_RECEIVED -> OAGMP_PROC_SUCCESS. Transitions are
monotonic: a failed step leaves the record at its last reached status, which
downstream tooling uses to detect stuck messages.

# License

BSD-2-Clause License
*/
package gooagis
