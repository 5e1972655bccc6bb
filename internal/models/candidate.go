package models

import "strings"

// CandidateRecord is the structured form of a CV
type CandidateRecord struct {
	Name             string           `json:"name"`
	Location         string           `json:"location"`
	Profile          string           `json:"profile"`
	Education        []Education      `json:"education"`
	WorkExperience   []Job            `json:"work_experience"`
	Skills           Skills           `json:"skills"`
	OtherInformation OtherInformation `json:"other_information"`
	Skillset         Skillset         `json:"skillset"`
	Contact          Contact          `json:"contact"`
}

type Education struct {
	Dates       string   `json:"dates"`
	Title       string   `json:"title"`
	Institution string   `json:"institution"`
	Location    string   `json:"location"`
	Details     []string `json:"details"`
}

type Job struct {
	Dates    string   `json:"dates"`
	Company  string   `json:"company"`
	Location string   `json:"location"`
	Position string   `json:"position"`
	Bullets  []string `json:"bullets"`
}

type Skills struct {
	Technical []string `json:"technical"`
	Soft      []string `json:"soft"`
}

type OtherInformation struct {
	Languages       []string `json:"languages"`
	Certifications  []string `json:"certifications"`
	TechnicalSkills []string `json:"technical_skills"`
	SoftSkills      []string `json:"soft_skills"`
}

type Skillset struct {
	Business  []string `json:"business"`
	Technical []string `json:"technical"`
}

type Contact struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	LinkedIn string `json:"linkedin"`
}

// DisplayName returns the candidate name or a neutral placeholder.
func (c *CandidateRecord) DisplayName() string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	return "the candidate"
}

// TechnicalSkills prefers the skills section and falls back to other information.
func (c *CandidateRecord) TechnicalSkills() []string {
	if len(c.Skills.Technical) > 0 {
		return c.Skills.Technical
	}
	return c.OtherInformation.TechnicalSkills
}

func (c *CandidateRecord) SoftSkills() []string {
	if len(c.Skills.Soft) > 0 {
		return c.Skills.Soft
	}
	return c.OtherInformation.SoftSkills
}
