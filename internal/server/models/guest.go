package models

import "time"

const (
	DefaultNationality = "Brasileira"
	DefaultCountry     = "Brasil"
)

// Guest is a hotel guest record owned by the hotel account in UserID.
// BirthDate uses the YYYY-MM-DD layout.
type Guest struct {
	ID                    string    `json:"id"`
	UserID                string    `json:"user_id"`
	Name                  string    `json:"name"`
	Email                 string    `json:"email"`
	Phone                 string    `json:"phone"`
	BadgeName             *string   `json:"badge_name"`
	Gender                string    `json:"gender"`
	RGNumber              string    `json:"rg_number"`
	CPFNumber             string    `json:"cpf_number"`
	PassportNumber        *string   `json:"passport_number"`
	MedicationDetails     *string   `json:"medication_details"`
	BloodType             *string   `json:"blood_type"`
	BloodRhFactor         *string   `json:"blood_rh_factor"`
	HealthObservations    *string   `json:"health_observations"`
	SpecialNeedsDetails   *string   `json:"special_needs_details"`
	HasHeartCondition     bool      `json:"has_heart_condition"`
	HasDiabetes           bool      `json:"has_diabetes"`
	HasHighBloodPressure  bool      `json:"has_high_blood_pressure"`
	HasLowBloodPressure   bool      `json:"has_low_blood_pressure"`
	BirthDate             string    `json:"birth_date"`
	Nationality           string    `json:"nationality"`
	Address               *string   `json:"address"`
	AddressNumber         *string   `json:"address_number"`
	AddressComplement     *string   `json:"address_complement"`
	Neighborhood          *string   `json:"neighborhood"`
	City                  *string   `json:"city"`
	State                 *string   `json:"state"`
	Country               string    `json:"country"`
	EmergencyContactName  *string   `json:"emergency_contact_name"`
	EmergencyContactPhone *string   `json:"emergency_contact_phone"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// ApplyDefaults fills the defaulted columns left empty on create.
func (g *Guest) ApplyDefaults() {
	if g.Nationality == "" {
		g.Nationality = DefaultNationality
	}
	if g.Country == "" {
		g.Country = DefaultCountry
	}
}
