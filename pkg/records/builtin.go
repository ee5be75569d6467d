package records

// DefaultRegistry returns the built-in engineering, operations and
// current-year engineering datasets.
func DefaultRegistry() Registry {
	r, err := NewRegistry(builtin()...)
	if err != nil {
		panic("records: invalid built-in descriptor: " + err.Error())
	}
	return r
}

func builtin() []Descriptor {
	return []Descriptor{
		{
			Name:        "engineering",
			DisplayName: "Engineering Database",
			FileName:    "engineering.csv",
			IDField:     "s_no",
			IDPrefix:    "ENG",
			IDFormat:    "ENG-{timestamp}-{sequence}",
			Columns: []string{
				"s_no", "budget_head", "name_of_scheme", "sub_scheme_name", "ftr_hq_name", "shq_name",
				"location", "work_description", "executive_agency", "firm_name", "sd_amount_lakh",
				"expenditure_previous_fy", "expenditure_current_fy", "expenditure_total",
				"expenditure_percent", "physical_progress_percent", "ts_date", "tender_date",
				"acceptance_date", "award_date", "pdc_agreement", "pdc_revised",
				"completion_date_actual", "time_allowed_days", "current_status", "aa_es_reference",
				"remarks",
			},
			ComparisonColumns: []string{
				"name_of_scheme", "ftr_hq_name", "shq_name", "location", "work_description",
				"executive_agency", "firm_name", "sd_amount_lakh",
			},
			Aggregates: []Aggregate{
				{Name: "total_sanctioned", Column: "sd_amount_lakh", Kind: AggregateSum},
				{Name: "total_expenditure", Column: "expenditure_total", Kind: AggregateSum},
				{Name: "avg_progress", Column: "physical_progress_percent", Kind: AggregateAvg},
			},
		},
		{
			Name:        "operations",
			DisplayName: "Operations Database",
			FileName:    "operations.csv",
			IDField:     "S_No",
			IDPrefix:    "OPS",
			IDFormat:    "OPS-{timestamp}-{sequence}",
			Columns: []string{
				"S_No", "WORK_TYPE", "SOURCE_SHEET", "NAME_OF_WORK", "FRONTIER", "SECTOR_HQ",
				"LENGTH_KM", "UNITS_AOR", "HLEC_YEAR", "SANCTIONED_AMOUNT_CR", "SDC", "PDC",
				"COMPLETED_PERCENTAGE", "REMARKS", "APPROVED AMOUNT (CR)",
			},
			ComparisonColumns: []string{"NAME_OF_WORK", "FRONTIER", "SECTOR_HQ", "LENGTH_KM", "SANCTIONED_AMOUNT_CR"},
			Aggregates: []Aggregate{
				{Name: "total_length", Column: "LENGTH_KM", Kind: AggregateSum},
				{Name: "total_amount", Column: "SANCTIONED_AMOUNT_CR", Kind: AggregateSum},
				{Name: "avg_completion", Column: "COMPLETED_PERCENTAGE", Kind: AggregateAvg},
			},
		},
		{
			Name:        "enggcurrentyear",
			DisplayName: "Engineering Current Year",
			FileName:    "enggcurrentyear.csv",
			IDField:     "S/No.",
			IDPrefix:    "ECY",
			IDFormat:    "ECY-{timestamp}-{sequence}",
			Columns: []string{
				"S/No.", "ftr_hq", "budget_head", "Sub head", "Allotment Previous Financial year",
				"Expdr previous year", "Liabilities", "Fresh Sanction issued during CFY",
				"Effective sanction", "Allotment", "Expdr booked as per e-lekha as on 22/07/25",
				"% Age of expdr as per e-lekha", "Bill pending with PAD", "Bill pending with HQrs",
				"Total Expdr", "% Age of total Expdr", "Balance fund",
			},
			ComparisonColumns: []string{"ftr_hq", "budget_head", "Sub head", "Allotment Previous Financial year"},
			Aggregates: []Aggregate{
				{Name: "total_allotment", Column: "Allotment", Kind: AggregateSum},
				{Name: "total_expenditure", Column: "Total Expdr", Kind: AggregateSum},
				{Name: "balance_fund", Column: "Balance fund", Kind: AggregateSum},
			},
		},
	}
}
