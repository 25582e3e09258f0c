// Package fhir renders batch lab results as HL7 FHIR Observation resources.
package fhir

import (
	"fmt"
	"time"

	"github.com/and161185/ayurtrace/internal/errs"
	"github.com/and161185/ayurtrace/internal/model"
)

// Code systems and fixed codes.
const (
	LOINCSystem          = "http://loinc.org"
	HerbAnalysisCode     = "29478-2"
	HerbAnalysisDisplay  = "Pesticide and Herb Analysis"
	InterpretationSystem = "http://terminology.hl7.org/CodeSystem/v3-ObservationInterpretation"
	ContentIDSystem      = "https://ayushtrace.example.com/blockchainId"
)

// Coding is a FHIR Coding.
type Coding struct {
	System  string `json:"system"`
	Code    string `json:"code"`
	Display string `json:"display"`
}

// CodeableConcept is a FHIR CodeableConcept.
type CodeableConcept struct {
	Coding []Coding `json:"coding"`
	Text   string   `json:"text,omitempty"`
}

// Reference is a FHIR Reference.
type Reference struct {
	Reference string `json:"reference"`
	Display   string `json:"display,omitempty"`
}

// Annotation is a FHIR Annotation.
type Annotation struct {
	Text string `json:"text"`
}

// Identifier is a FHIR Identifier.
type Identifier struct {
	System string `json:"system"`
	Value  string `json:"value"`
}

// Observation is the subset of the FHIR R4 Observation resource we emit.
type Observation struct {
	ResourceType      string            `json:"resourceType"`
	ID                string            `json:"id"`
	Status            string            `json:"status"`
	Code              CodeableConcept   `json:"code"`
	Subject           Reference         `json:"subject"`
	EffectiveDateTime string            `json:"effectiveDateTime"`
	ValueString       string            `json:"valueString"`
	Interpretation    []CodeableConcept `json:"interpretation"`
	Note              []Annotation      `json:"note"`
	Identifier        []Identifier      `json:"identifier"`
}

// FromBatch builds an Observation for b. A batch without a lab result has
// nothing to export and yields ErrNotFound.
func FromBatch(b model.Batch) (*Observation, error) {
	lr := b.LabResult
	if lr == nil {
		return nil, fmt.Errorf("lab result for batch %s: %w", b.ID, errs.ErrNotFound)
	}
	interp := Coding{System: InterpretationSystem, Code: "A", Display: "Abnormal"}
	if lr.Verdict == model.VerdictPass {
		interp.Code, interp.Display = "N", "Normal"
	}
	owner := b.OwnerID.String()
	return &Observation{
		ResourceType: "Observation",
		ID:           fmt.Sprintf("batch-%s-lab-result", b.ID),
		Status:       "final",
		Code: CodeableConcept{
			Coding: []Coding{{System: LOINCSystem, Code: HerbAnalysisCode, Display: HerbAnalysisDisplay}},
			Text:   "Lab test for " + b.PlantName,
		},
		Subject:           Reference{Reference: "Patient/farmer-" + owner, Display: "Farmer " + owner},
		EffectiveDateTime: lr.UploadedAt.UTC().Format(time.RFC3339),
		ValueString:       "Result: " + string(lr.Verdict),
		Interpretation:    []CodeableConcept{{Coding: []Coding{interp}}},
		Note:              []Annotation{{Text: "Original report file: " + lr.FileName}},
		Identifier:        []Identifier{{System: ContentIDSystem, Value: b.ContentID}},
	}, nil
}
