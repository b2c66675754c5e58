// Package domain contains the core business entities for the Jivhala Motors
// back-office.
package domain

import (
	"fmt"
	"math/rand"
	"regexp"
	"time"
)

// VehicleStatus is the lifecycle state of a vehicle record.
type VehicleStatus string

const (
	// StatusIn means the vehicle is in inventory.
	StatusIn VehicleStatus = "in"

	// StatusOut means the vehicle has been sold to a buyer.
	StatusOut VehicleStatus = "out"
)

// IsValid reports whether the status is one of the known states.
func (s VehicleStatus) IsValid() bool {
	return s == StatusIn || s == StatusOut
}

// OwnerType is the ownership generation of the vehicle at intake.
type OwnerType string

const (
	OwnerFirst  OwnerType = "1st"
	OwnerSecond OwnerType = "2nd"
	OwnerThird  OwnerType = "3rd"
)

// IsValid reports whether the owner type is one of the known values.
func (t OwnerType) IsValid() bool {
	return t == OwnerFirst || t == OwnerSecond || t == OwnerThird
}

// IDProofType is the kind of government ID recorded for a buyer.
type IDProofType string

const (
	IDProofAadhaar  IDProofType = "Aadhaar"
	IDProofPAN      IDProofType = "PAN"
	IDProofDL       IDProofType = "DL"
	IDProofVoter    IDProofType = "Voter"
	IDProofPassport IDProofType = "Passport"
)

// IsValid reports whether the ID proof type is one of the known values.
func (t IDProofType) IsValid() bool {
	switch t {
	case IDProofAadhaar, IDProofPAN, IDProofDL, IDProofVoter, IDProofPassport:
		return true
	}
	return false
}

// MinModelYear is the oldest model year accepted at intake.
const MinModelYear = 1990

// MaxModelYear returns the newest model year accepted at intake
// (next calendar year).
func MaxModelYear(now time.Time) int {
	return now.Year() + 1
}

// MaxPhotos is the maximum number of photos attached to a vehicle.
const MaxPhotos = 6

// mobilePattern matches Indian mobile numbers: 10 digits starting 6-9.
var mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

// ValidMobile reports whether the string is a well-formed mobile number.
func ValidMobile(s string) bool {
	return mobilePattern.MatchString(s)
}

// Documents records which paper documents were handed over at intake.
type Documents struct {
	RC  bool `json:"RC"`
	PUC bool `json:"PUC"`
	NOC bool `json:"NOC"`
}

// Photo is a stored-file descriptor for an uploaded vehicle image.
type Photo struct {
	// ID is the photo's identifier within the record store.
	ID int64 `json:"id"`

	// Filename is the generated name of the stored file.
	Filename string `json:"filename"`

	// OriginalName is the client-supplied file name.
	OriginalName string `json:"originalName"`

	// Path is the storage path of the file, relative to the uploads root.
	Path string `json:"path"`

	// URL is the web-relative form of Path, set when rendering responses.
	URL string `json:"url,omitempty"`

	// UploadDate is when the file was stored.
	UploadDate time.Time `json:"uploadDate"`
}

// Buyer is the sale sub-record attached to a vehicle when it goes out.
type Buyer struct {
	Name          string      `json:"buyerName"`
	Address       string      `json:"address"`
	MobileNo      string      `json:"mobileNo"`
	Price         float64     `json:"price"`
	RTOCharges    float64     `json:"rtoCharges"`
	Commission    float64     `json:"commission"`
	Token         float64     `json:"token"`
	ReceivedPrice float64     `json:"receivedPrice"`
	Balance       float64     `json:"balance"`
	IDProofType   IDProofType `json:"idProofType"`
	IDProofNumber string      `json:"idProofNumber,omitempty"`

	// Photo is the optional buyer photo descriptor.
	Photo *Photo `json:"buyerPhoto,omitempty"`
}

// Vehicle is the central entity of the back-office: a vehicle taken into
// inventory, its documents and photos, and its eventual sale.
type Vehicle struct {
	// ID is the storage-assigned primary key.
	ID int64 `json:"id"`

	// UniqueID is the system-generated, human-readable identifier,
	// distinct from the primary key.
	UniqueID string `json:"uniqueId"`

	// Intake facts.
	VehicleInDate time.Time  `json:"vehicleInDate"`
	VehicleNumber string     `json:"vehicleNumber"`
	VehicleHP     string     `json:"vehicleHP,omitempty"`
	ChassisNo     string     `json:"chassisNo"`
	EngineNo      string     `json:"engineNo"`
	VehicleName   string     `json:"vehicleName"`
	ModelYear     int        `json:"modelYear"`
	OwnerName     string     `json:"ownerName"`
	OwnerType     OwnerType  `json:"ownerType"`
	MobileNo      string     `json:"mobileNo"`
	InsuranceDate *time.Time `json:"insuranceDate,omitempty"`
	Challan       string     `json:"challan,omitempty"`

	Documents Documents `json:"documents"`
	Photos    []Photo   `json:"photos"`

	// Lifecycle.
	Status  VehicleStatus `json:"status"`
	OutDate *time.Time    `json:"outDate,omitempty"`

	// Buyer is present only after sale (nil iff Status is "in").
	Buyer *Buyer `json:"buyer,omitempty"`

	// Audit.
	CreatedBy int64     `json:"-"`
	UpdatedBy *int64    `json:"-"`
	Creator   *UserRef  `json:"createdBy,omitempty"`
	Updater   *UserRef  `json:"updatedBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUniqueID generates the human-readable vehicle identifier.
// Format: JM-<unix millis>-<9 base36 chars>, time-seeded so IDs sort
// roughly by intake order.
func NewUniqueID(now time.Time) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return fmt.Sprintf("JM-%d-%s", now.UnixMilli(), suffix)
}

// NewVehicle creates a vehicle record in the "in" state with a fresh
// unique identifier.
func NewVehicle(createdBy int64) *Vehicle {
	now := time.Now().UTC()
	return &Vehicle{
		UniqueID:      NewUniqueID(now),
		VehicleInDate: now,
		Status:        StatusIn,
		CreatedBy:     createdBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// IsOut reports whether the vehicle has been sold.
func (v *Vehicle) IsOut() bool {
	return v.Status == StatusOut
}

// CalculatedBalance derives the outstanding balance from the buyer
// sub-record: price minus received amount when both are set, else 0.
// Never stored; recomputed on every read to avoid staleness.
func (v *Vehicle) CalculatedBalance() float64 {
	if v.Buyer != nil && v.Buyer.Price != 0 && v.Buyer.ReceivedPrice != 0 {
		return v.Buyer.Price - v.Buyer.ReceivedPrice
	}
	return 0
}
