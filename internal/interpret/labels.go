package interpret

// Labels names the rows and columns the rules read. Lookups go through the
// table's label normalisation, so case, spaces and underscores do not matter.
type Labels struct {
	FVC             string `json:"fvc"`
	FEV1            string `json:"fev1"`
	FEV1FVC         string `json:"fev1_fvc"`
	TestGrade       string `json:"test_grade"`
	TLC             string `json:"tlc"`
	RV              string `json:"rv"`
	RVTLC           string `json:"rv_tlc"`
	DLCOCorrected   string `json:"dlco_corrected"`
	DLCOUncorrected string `json:"dlco_uncorrected"`

	Pre        string `json:"pre"`
	ZScore     string `json:"zscore"`
	LLN        string `json:"lln"`
	PredPre    string `json:"pred_pre"`
	Post       string `json:"post"`
	ZScorePost string `json:"zscore_post"`
	PredPost   string `json:"pred_post"`
	ChangePost string `json:"change_post"`

	// PassingGrade is the test-grade code reported when no other grade is read.
	PassingGrade string `json:"passing_grade"`
}

// DefaultLabels returns the labels used by the standard report layout.
func DefaultLabels() Labels {
	return Labels{
		FVC:             "fvc",
		FEV1:            "fev1",
		FEV1FVC:         "fev1/fvc",
		TestGrade:       "testgrade",
		TLC:             "tlcpleth",
		RV:              "rvpleth",
		RVTLC:           "rv/tlcpleth",
		DLCOCorrected:   "dlcocor",
		DLCOUncorrected: "dlcounc",

		Pre:        "pre",
		ZScore:     "zscore",
		LLN:        "lln",
		PredPre:    "%predpre",
		Post:       "post",
		ZScorePost: "zscore post",
		PredPost:   "%predpost",
		ChangePost: "%changepost",

		PassingGrade: "AA",
	}
}

// WithDefaults fills any empty label from DefaultLabels.
func (l Labels) WithDefaults() Labels {
	d := DefaultLabels()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&l.FVC, d.FVC)
	fill(&l.FEV1, d.FEV1)
	fill(&l.FEV1FVC, d.FEV1FVC)
	fill(&l.TestGrade, d.TestGrade)
	fill(&l.TLC, d.TLC)
	fill(&l.RV, d.RV)
	fill(&l.RVTLC, d.RVTLC)
	fill(&l.DLCOCorrected, d.DLCOCorrected)
	fill(&l.DLCOUncorrected, d.DLCOUncorrected)
	fill(&l.Pre, d.Pre)
	fill(&l.ZScore, d.ZScore)
	fill(&l.LLN, d.LLN)
	fill(&l.PredPre, d.PredPre)
	fill(&l.Post, d.Post)
	fill(&l.ZScorePost, d.ZScorePost)
	fill(&l.PredPost, d.PredPost)
	fill(&l.ChangePost, d.ChangePost)
	fill(&l.PassingGrade, d.PassingGrade)
	return l
}
