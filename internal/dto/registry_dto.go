package dto

type CreatePatientRequest struct {
	Name          string  `json:"name"`
	CPF           string  `json:"cpf"`
	Phone         string  `json:"phone"`
	Email         *string `json:"email,omitempty"`
	BirthDate     string  `json:"birth_date"`
	InsurancePlan string  `json:"insurance_plan,omitempty"`
	History       string  `json:"history,omitempty"`
}

type UpdatePatientRequest struct {
	Name          *string `json:"name,omitempty"`
	CPF           *string `json:"cpf,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Email         *string `json:"email,omitempty"`
	BirthDate     *string `json:"birth_date,omitempty"`
	InsurancePlan *string `json:"insurance_plan,omitempty"`
	History       *string `json:"history,omitempty"`
}

type CreateTherapistRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone,omitempty"`
	CREFITO   string `json:"crefito"`
	Specialty string `json:"specialty"`
}

type UpdateTherapistRequest struct {
	Name      *string `json:"name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	CREFITO   *string `json:"crefito,omitempty"`
	Specialty *string `json:"specialty,omitempty"`
}

type CreateReceptionistRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

type UpdateReceptionistRequest struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Phone  *string `json:"phone,omitempty"`
	Active *bool   `json:"active,omitempty"`
}
