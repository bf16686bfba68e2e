package models

// FeatureCorrelation is the Pearson correlation of a feature with RUL days.
type FeatureCorrelation struct {
	Feature     string  `json:"feature" yaml:"feature"`
	Correlation float64 `json:"correlation" yaml:"correlation"`
}

// FeatureCoefficient is a fitted coefficient expressed in days of RUL per
// standard deviation of the feature.
type FeatureCoefficient struct {
	Feature     string  `json:"feature" yaml:"feature"`
	Coefficient float64 `json:"coefficient" yaml:"coefficient"`
	Correlation float64 `json:"correlation" yaml:"correlation"`
	Direction   string  `json:"direction" yaml:"direction"`
}

// FitMetrics holds the error measures for one data split.
type FitMetrics struct {
	Samples int     `json:"samples" yaml:"samples"`
	MAE     float64 `json:"mae" yaml:"mae"`
	R2      float64 `json:"r2" yaml:"r2"`
}

// ModelReport summarizes a trained RUL model.
type ModelReport struct {
	CandidateFeatures int                  `json:"candidate_features" yaml:"candidate_features"`
	Samples           int                  `json:"samples" yaml:"samples"`
	DroppedOutliers   int                  `json:"dropped_outliers" yaml:"dropped_outliers"`
	Intercept         float64              `json:"intercept" yaml:"intercept"`
	Train             FitMetrics           `json:"train" yaml:"train"`
	Test              FitMetrics           `json:"test" yaml:"test"`
	Coefficients      []FeatureCoefficient `json:"coefficients" yaml:"coefficients"`
}

// CategoryStat describes the RUL distribution of one category.
type CategoryStat struct {
	Category RULCategory `json:"category" yaml:"category"`
	Count    int         `json:"count" yaml:"count"`
	MeanRUL  float64     `json:"mean_rul" yaml:"mean_rul"`
	StdRUL   float64     `json:"std_rul" yaml:"std_rul"`
}

// CategoryDeviation is how far a feature's category mean sits from its
// overall mean.
type CategoryDeviation struct {
	Feature        string  `json:"feature" yaml:"feature"`
	CategoryMean   float64 `json:"category_mean" yaml:"category_mean"`
	OverallMean    float64 `json:"overall_mean" yaml:"overall_mean"`
	DiffPercent    float64 `json:"diff_percent" yaml:"diff_percent"`
	Significant    bool    `json:"significant" yaml:"significant"`
	Interpretation string  `json:"interpretation,omitempty" yaml:"interpretation,omitempty"`
}

// CategoryProfile lists the most distinctive features of a RUL category.
type CategoryProfile struct {
	Category   RULCategory         `json:"category" yaml:"category"`
	Samples    int                 `json:"samples" yaml:"samples"`
	Deviations []CategoryDeviation `json:"deviations" yaml:"deviations"`
}
