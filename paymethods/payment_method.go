// Package paymethods holds the payment-method value objects the connector
// maps onto the wire. A payment method is a single variant type whose
// optional capability fields (card data, track data, pin block, 3-D Secure
// result, encryption metadata) drive which request fields are emitted.
package paymethods

import "github.com/kevin07696/globalpay-sdk/entities"

// CardData is manually keyed or stored card data.
type CardData struct {
	Number         string
	ExpMonth       int
	ExpYear        int
	Cvn            string
	CvnPresence    entities.CvnPresenceIndicator
	CardHolderName string
	ReaderPresent  bool
	CardPresent    bool
}

// TrackData is magnetic-stripe or proximity read data. Expiry is YYMM.
type TrackData struct {
	Value       string
	Pan         string
	Expiry      string
	EntryMethod entities.EntryMethod
}

// ThreeDSecure is the result of a 3-D Secure authentication.
type ThreeDSecure struct {
	Xid  string
	Cavv string
	Eci  string
}

// EncryptionData describes how card data in the request was encrypted.
// Exactly one of Ktb or Ksn is expected to be populated.
type EncryptionData struct {
	Version string
	Ktb     string
	Ksn     string
}

// PaymentMethod is the tagged variant the connector inspects. Card and
// Track are mutually exclusive; the remaining fields are capabilities that
// may accompany either.
type PaymentMethod struct {
	Funding      entities.Funding
	Card         *CardData
	Track        *TrackData
	PinBlock     string
	ThreeDSecure *ThreeDSecure
	Encryption   *EncryptionData
}

// HasCardData reports whether manually keyed card data is present.
func (p *PaymentMethod) HasCardData() bool {
	return p.Card != nil
}

// HasTrackData reports whether track data is present.
func (p *PaymentMethod) HasTrackData() bool {
	return p.Track != nil
}

// IsPinProtected reports whether a pin block accompanies the payment method.
func (p *PaymentMethod) IsPinProtected() bool {
	return p.PinBlock != ""
}

// HasAuthenticationData reports whether a 3-D Secure result is attached.
func (p *PaymentMethod) HasAuthenticationData() bool {
	return p.ThreeDSecure != nil
}

// IsEncrypted reports whether encryption metadata is attached.
func (p *PaymentMethod) IsEncrypted() bool {
	return p.Encryption != nil
}
