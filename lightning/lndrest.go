// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package lightning

import (
	"bytes"
	"crypto/tls"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strconv"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/squeaknet/squeakd/fault"
)

// Configuration - connection details for an lnd REST endpoint
type Configuration struct {
	Endpoint     string `gluamapper:"endpoint" json:"endpoint"`
	MacaroonFile string `gluamapper:"macaroon_file" json:"macaroon_file"`
	Insecure     bool   `gluamapper:"insecure" json:"insecure"`
}

// payment execution can legitimately take a while on a long route
const (
	lndRequestTimeout = 30 * time.Second
	lndPayTimeout     = 120 * time.Second
)

// LndClient - lnd REST backend
type LndClient struct {
	log      *logger.L
	endpoint string
	macaroon string
	client   *http.Client
	payer    *http.Client
	streamer *http.Client
}

// NewLndClient - create a client for an lnd node
func NewLndClient(configuration *Configuration) (*LndClient, error) {

	if "" == configuration.Endpoint {
		return nil, fault.MissingParameters
	}

	macaroon := ""
	if "" != configuration.MacaroonFile {
		data, err := ioutil.ReadFile(configuration.MacaroonFile)
		if nil != err {
			return nil, err
		}
		macaroon = hex.EncodeToString(data)
	}

	transport := &http.Transport{}
	if configuration.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &LndClient{
		log:      logger.New("lnd"),
		endpoint: configuration.Endpoint,
		macaroon: macaroon,
		client:   &http.Client{Transport: transport, Timeout: lndRequestTimeout},
		payer:    &http.Client{Transport: transport, Timeout: lndPayTimeout},
		// the subscription is a long poll: no client timeout
		streamer: &http.Client{Transport: transport},
	}, nil
}

func (l *LndClient) newRequest(method string, path string, body []byte) (*http.Request, error) {
	var reader *bytes.Reader
	if nil == body {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	request, err := http.NewRequest(method, l.endpoint+path, reader)
	if nil != err {
		return nil, err
	}
	if "" != l.macaroon {
		request.Header.Set("Grpc-Metadata-macaroon", l.macaroon)
	}
	request.Header.Set("Content-Type", "application/json")
	return request, nil
}

// CreateInvoice - issue an invoice bound to the given preimage
func (l *LndClient) CreateInvoice(preimage []byte, amountMsat uint64, expiry time.Duration) (Invoice, error) {

	arguments := struct {
		RPreimage string `json:"r_preimage"`
		ValueMsat string `json:"value_msat"`
		Expiry    string `json:"expiry"`
	}{
		RPreimage: base64.StdEncoding.EncodeToString(preimage),
		ValueMsat: strconv.FormatUint(amountMsat, 10),
		Expiry:    strconv.FormatInt(int64(expiry/time.Second), 10),
	}

	body, err := json.Marshal(arguments)
	if nil != err {
		return Invoice{}, err
	}

	request, err := l.newRequest("POST", "/v1/invoices", body)
	if nil != err {
		return Invoice{}, err
	}

	response, err := l.client.Do(request)
	if nil != err {
		l.log.Warnf("create invoice transport error: %s", err)
		return Invoice{}, fault.PaymentDidNotSettle
	}
	defer response.Body.Close()

	var reply struct {
		RHash          string `json:"r_hash"`
		PaymentRequest string `json:"payment_request"`
	}
	if err := json.NewDecoder(response.Body).Decode(&reply); nil != err {
		return Invoice{}, err
	}
	if "" == reply.PaymentRequest {
		l.log.Errorf("create invoice rejected: status: %d", response.StatusCode)
		return Invoice{}, fault.PaymentDidNotSettle
	}

	invoice := Invoice{
		PaymentRequest: reply.PaymentRequest,
		CreationTime:   time.Now(),
		Expiry:         expiry,
	}

	rHash, err := base64.StdEncoding.DecodeString(reply.RHash)
	if nil != err || 32 != len(rHash) {
		return Invoice{}, fault.InvalidPaymentHash
	}
	copy(invoice.PaymentHash[:], rHash)

	return invoice, nil
}

// PayInvoice - execute a payment and return the preimage
func (l *LndClient) PayInvoice(paymentRequest string) ([]byte, error) {

	arguments := struct {
		PaymentRequest string `json:"payment_request"`
	}{
		PaymentRequest: paymentRequest,
	}

	body, err := json.Marshal(arguments)
	if nil != err {
		return nil, err
	}

	request, err := l.newRequest("POST", "/v1/channels/transactions", body)
	if nil != err {
		return nil, err
	}

	response, err := l.payer.Do(request)
	if nil != err {
		l.log.Warnf("pay transport error: %s", err)
		return nil, fault.PaymentDidNotSettle
	}
	defer response.Body.Close()

	var reply struct {
		PaymentError    string `json:"payment_error"`
		PaymentPreimage string `json:"payment_preimage"`
	}
	if err := json.NewDecoder(response.Body).Decode(&reply); nil != err {
		return nil, err
	}
	if "" != reply.PaymentError {
		l.log.Warnf("payment failed: %s", reply.PaymentError)
		return nil, fault.PaymentDidNotSettle
	}

	preimage, err := base64.StdEncoding.DecodeString(reply.PaymentPreimage)
	if nil != err || 32 != len(preimage) {
		return nil, fault.InvalidPreimage
	}
	return preimage, nil
}

// lndFeed - one open subscription stream
type lndFeed struct {
	log      *logger.L
	response *http.Response
	decoder  *json.Decoder
}

// SubscribeSettled - open the settled-invoice stream
func (l *LndClient) SubscribeSettled(fromSettleIndex uint64) (SettlementFeed, error) {

	path := fmt.Sprintf("/v1/invoices/subscribe?settle_index=%d", fromSettleIndex)
	request, err := l.newRequest("GET", path, nil)
	if nil != err {
		return nil, err
	}

	response, err := l.streamer.Do(request)
	if nil != err {
		l.log.Warnf("subscribe transport error: %s", err)
		return nil, fault.NoConnectionsAvailable
	}
	if http.StatusOK != response.StatusCode {
		response.Body.Close()
		l.log.Warnf("subscribe rejected: status: %d", response.StatusCode)
		return nil, fault.NoConnectionsAvailable
	}

	return &lndFeed{
		log:      l.log,
		response: response,
		decoder:  json.NewDecoder(response.Body),
	}, nil
}

// Receive - block until the next settled invoice
//
// unsettled invoice events on the stream are skipped
func (f *lndFeed) Receive() (Settlement, error) {

	for {
		// lnd streams {"result": {...invoice...}} objects
		var event struct {
			Result struct {
				Settled     bool   `json:"settled"`
				SettleIndex string `json:"settle_index"`
				RHash       string `json:"r_hash"`
				AmtPaidMsat string `json:"amt_paid_msat"`
			} `json:"result"`
		}

		if err := f.decoder.Decode(&event); nil != err {
			return Settlement{}, err
		}
		if !event.Result.Settled {
			continue
		}

		settleIndex, err := strconv.ParseUint(event.Result.SettleIndex, 10, 64)
		if nil != err {
			f.log.Errorf("feed: invalid settle index: %q", event.Result.SettleIndex)
			continue
		}
		amount, _ := strconv.ParseUint(event.Result.AmtPaidMsat, 10, 64)

		rHash, err := base64.StdEncoding.DecodeString(event.Result.RHash)
		if nil != err || 32 != len(rHash) {
			f.log.Errorf("feed: invalid r_hash: %q", event.Result.RHash)
			continue
		}

		s := Settlement{
			SettleIndex: settleIndex,
			AmountMsat:  amount,
		}
		copy(s.PaymentHash[:], rHash)
		return s, nil
	}
}

// Close - drop the stream
func (f *lndFeed) Close() {
	f.response.Body.Close()
}
