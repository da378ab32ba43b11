package main

// RunSummary stores fhncal run summary information.
type RunSummary struct {
	// Version stores fhncal version.
	Version string `json:"version"`
	// CommandLine is an array storing binary name and all command-line parameters.
	CommandLine []string `json:"commandLine"`
	// Seed is the seed used for the sampler's random number generation.
	Seed int64 `json:"seed"`
	// DataSeed is the seed used for synthetic data generation.
	DataSeed int64 `json:"dataSeed"`
	// Iterations is the chain length.
	Iterations int `json:"iterations"`
	// AcceptanceRate is the fraction of accepted proposals.
	AcceptanceRate float64 `json:"acceptanceRate"`
	// EvalFailures is the number of failed energy evaluations.
	EvalFailures int `json:"evalFailures"`
	// TrueTheta is the parameter the data was generated with.
	TrueTheta float64 `json:"trueTheta"`
	// MAP is the sampled point with the lowest energy.
	MAP float64 `json:"map"`
	// MAPEnergy is the energy at the MAP point.
	MAPEnergy float64 `json:"mapEnergy"`
	// PosteriorMean is the posterior mean after burn-in.
	PosteriorMean float64 `json:"posteriorMean"`
	// PosteriorSD is the posterior standard deviation after burn-in.
	PosteriorSD float64 `json:"posteriorSD"`
	// CI95 is the equal-tailed 95% credible interval after burn-in.
	CI95 [2]float64 `json:"ci95"`
	// BurnIn is the burn-in fraction used for the summaries.
	BurnIn float64 `json:"burnIn"`
	// Time is the computations time in seconds.
	Time float64 `json:"time"`
}
