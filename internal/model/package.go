package model

// FeaturePackage is one training or scoring instance for a query: its
// frequency in each chained bucket, the observed target and the last
// prediction.
type FeaturePackage struct {
	Query     string
	Features  []float64
	Target    float64
	Predicted float64
}

// TrainingPackage groups the feature packages assembled for a prefix when a
// training horizon closes. Targets are back-filled when the next horizon
// closes, after which the package is consumed by the model.
type TrainingPackage struct {
	Prefix    string
	CreatedAt int
	TrainedAt int
	First     bool
	Features  []*FeaturePackage
}

// QueriesSinceLastTrain is the number of queries replayed between assembly
// and training.
func (p *TrainingPackage) QueriesSinceLastTrain() int {
	return p.TrainedAt - p.CreatedAt
}
