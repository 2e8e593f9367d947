// Package tse simulates a German Technical Security Unit (TSE), the
// certified signing device a cash register must attach to every
// transaction. The Device mimics the observable behavior of a real unit
// (serial number, monotonic transaction counter, signed time window) while
// the Signer interface keeps the actual cryptography pluggable so a
// certified hardware or cloud signer can be dropped in later.
package tse

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Signature is a single signed transaction record as a TSE reports it.
type Signature struct {
	SerialNumber      string    `json:"serial_number"`
	TransactionNumber int64     `json:"transaction_number"`
	StartTime         time.Time `json:"start_time"`
	FinishTime        time.Time `json:"finish_time"`
	Signature         string    `json:"signature"`
}

// Signer produces the cryptographic attestation for one transaction.
type Signer interface {
	Sign(transactionData []byte) (string, error)
}

// Device is a simulated TSE. Both counters are guarded by a mutex so two
// simultaneous checkouts can never mint the same receipt number or
// transaction id.
type Device struct {
	serial string
	signer Signer

	mu         sync.Mutex
	receiptSeq int64
	txnSeq     int64

	now func() time.Time
}

// NewDevice creates a simulated TSE with the given fiscal memory serial.
func NewDevice(serial string, signer Signer) *Device {
	return &Device{
		serial: serial,
		signer: signer,
		now:    time.Now,
	}
}

// Seed fast-forwards the counters so numbering resumes after the highest
// values already persisted. Called once at startup, before the device is
// shared between requests.
func (d *Device) Seed(receiptSeq, txnSeq int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if receiptSeq > d.receiptSeq {
		d.receiptSeq = receiptSeq
	}
	if txnSeq > d.txnSeq {
		d.txnSeq = txnSeq
	}
}

// SerialNumber returns the fiscal memory serial of the device.
func (d *Device) SerialNumber() string {
	return d.serial
}

// NextReceiptNumber returns the next receipt number in the form
// YYYYMMDD-NNNNNN. The date part follows the wall clock; the six-digit
// suffix is strictly increasing for the lifetime of the sequence.
func (d *Device) NextReceiptNumber() string {
	d.mu.Lock()
	d.receiptSeq++
	seq := d.receiptSeq
	d.mu.Unlock()

	return fmt.Sprintf("%s-%06d", d.now().Format("20060102"), seq)
}

// SignTransaction advances the transaction counter and signs the given
// transaction data. The finish time is a fixed one second after the start,
// mirroring the synthetic processing window of the simulated unit.
func (d *Device) SignTransaction(transactionData []byte) (Signature, error) {
	d.mu.Lock()
	d.txnSeq++
	txn := d.txnSeq
	d.mu.Unlock()

	sig, err := d.signer.Sign(transactionData)
	if err != nil {
		return Signature{}, fmt.Errorf("tse: signing transaction %d: %w", txn, err)
	}

	start := d.now()
	return Signature{
		SerialNumber:      d.serial,
		TransactionNumber: txn,
		StartTime:         start,
		FinishTime:        start.Add(time.Second),
		Signature:         sig,
	}, nil
}

// TransactionID formats a transaction counter value as the wire-level id.
func TransactionID(n int64) string {
	return fmt.Sprintf("txn-%d", n)
}

// ParseReceiptSequence extracts the numeric suffix from a receipt number
// such as "20240601-000042". Used to seed the device from the last
// persisted receipt.
func ParseReceiptSequence(receiptNumber string) (int64, error) {
	_, suffix, ok := strings.Cut(receiptNumber, "-")
	if !ok {
		return 0, fmt.Errorf("tse: malformed receipt number %q", receiptNumber)
	}
	n, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("tse: malformed receipt number %q: %w", receiptNumber, err)
	}
	return n, nil
}

// ParseTransactionNumber extracts the counter from a transaction id such
// as "txn-17".
func ParseTransactionNumber(transactionID string) (int64, error) {
	suffix, ok := strings.CutPrefix(transactionID, "txn-")
	if !ok {
		return 0, fmt.Errorf("tse: malformed transaction id %q", transactionID)
	}
	n, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("tse: malformed transaction id %q: %w", transactionID, err)
	}
	return n, nil
}
