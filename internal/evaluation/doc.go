// Package evaluation compares learning algorithms on the preprocessed
// feature file.
//
// A Dataset is loaded from the feature file with LoadDataset, split once by
// a Sampler (RandomSplit or BalancedSplit) and every Model is fitted on the
// training part. Evaluate then scores the models on the same testing part:
// predictions above the threshold are classified as paid (Positive), the
// others as unpaid (Negative).
//
//	data, dropped, err := evaluation.LoadDataset(f, cfg.Evaluation.Features)
//	sampler, err := evaluation.NewSampler(cfg.Evaluation)
//	results, err := evaluation.Evaluate(ctx, evaluation.NewModels(cfg.Evaluation), data, sampler, cfg.Evaluation.Threshold)
package evaluation
