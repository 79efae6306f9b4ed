// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package scanner

import (
	"github.com/moneroacceptor/gateway/invoice"
	"github.com/moneroacceptor/gateway/rpcclient"
	"github.com/moneroacceptor/gateway/xmrcrypto"
)

func toInvoiceSubIndex(idx xmrcrypto.SubIndex) invoice.SubIndex {
	return invoice.SubIndex{Major: idx.Major, Minor: idx.Minor}
}

func toCryptoSubIndex(idx invoice.SubIndex) xmrcrypto.SubIndex {
	return xmrcrypto.SubIndex{Major: idx.Major, Minor: idx.Minor}
}

func toInvoiceHash(h rpcclient.Hash) invoice.Hash {
	return invoice.Hash(h)
}
