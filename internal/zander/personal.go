package zander

import "fmt"

// PersonalDataSize is the length of the personal data frame.
const PersonalDataSize = 140

var (
	pilotField        = textField{name: "pilot", offset: 0, width: 40}
	modelField        = textField{name: "model", offset: 40, width: 40}
	classField        = textField{name: "class", offset: 80, width: 40}
	registrationField = textField{name: "registration", offset: 120, width: 10}
	signField         = textField{name: "sign", offset: 130, width: 10}
)

// PersonalData identifies the pilot and aircraft. The zero value is an empty
// record.
type PersonalData struct {
	Pilot        string `yaml:"pilot" json:"pilot"`
	Model        string `yaml:"model" json:"model"`
	Class        string `yaml:"class" json:"class"`
	Registration string `yaml:"registration" json:"registration"`
	Sign         string `yaml:"sign" json:"sign"`
}

// NewPersonalData trims every field and rejects values wider than the device
// allows.
func NewPersonalData(pilot, model, class, registration, sign string) (PersonalData, error) {
	var pd PersonalData
	var err error
	if pd.Pilot, err = pilotField.check(pilot); err != nil {
		return PersonalData{}, err
	}
	if pd.Model, err = modelField.check(model); err != nil {
		return PersonalData{}, err
	}
	if pd.Class, err = classField.check(class); err != nil {
		return PersonalData{}, err
	}
	if pd.Registration, err = registrationField.check(registration); err != nil {
		return PersonalData{}, err
	}
	if pd.Sign, err = signField.check(sign); err != nil {
		return PersonalData{}, err
	}
	return pd, nil
}

// Validate reports whether every field fits its slot.
func (pd PersonalData) Validate() error {
	_, err := NewPersonalData(pd.Pilot, pd.Model, pd.Class, pd.Registration, pd.Sign)
	return err
}

// EncodePersonalData builds the 140-byte frame. Overlong fields are
// truncated.
func EncodePersonalData(pd PersonalData) []byte {
	rec := make([]byte, PersonalDataSize)
	pilotField.put(rec, pd.Pilot)
	modelField.put(rec, pd.Model)
	classField.put(rec, pd.Class)
	registrationField.put(rec, pd.Registration)
	signField.put(rec, pd.Sign)
	return rec
}

func DecodePersonalData(b []byte) (PersonalData, error) {
	if len(b) != PersonalDataSize {
		return PersonalData{}, fmt.Errorf("%w: personal data is %d bytes, want %d", ErrFormat, len(b), PersonalDataSize)
	}
	return PersonalData{
		Pilot:        pilotField.get(b),
		Model:        modelField.get(b),
		Class:        classField.get(b),
		Registration: registrationField.get(b),
		Sign:         signField.get(b),
	}, nil
}
