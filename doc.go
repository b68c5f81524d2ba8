// Package examscore predicts a student's exam score from study and lifestyle
// habits.
//
// The module is organised as a linear offline pipeline plus two small
// inference surfaces:
//
//	ingest -> clean -> features (encode, select) -> training -> artifact
//	artifact -> inference -> cmd/examscore (menu) | web (form)
//
// # Training
//
// The trainer splits the selected frame 80/20 with a fixed seed, fits a
// StandardScaler on the training rows only and evaluates five regressors
// in order: Linear, Ridge, Lasso, RandomForest and GradientBoosting. The
// candidate with the highest R² wins; ties go to the lower RMSE, then to
// the earlier candidate. The winner and its scaler are written to
// models/best_model.gob and models/scaler.gob.
//
//	p, err := pipeline.New(pipeline.Options{Source: "data/student_habits_performance.csv"},
//	    artifact.NewFileStore("models", logger), logger)
//	if err != nil {
//	    return err
//	}
//	res, err := p.Run()
//
// # Inference
//
// A Predictor reads the seven habits in fixed order, applies the frozen
// scaler and clips the model's output to [0, 100]:
//
//	pred, err := inference.Load(artifact.NewFileStore("models", logger), logger)
//	if errors.Is(err, errors.ErrArtifactsNotFound) {
//	    // run training first
//	}
//	score, err := pred.Predict(inference.Input{StudyHours: 4, Attendance: 90, Sleep: 7})
//
// # Packages
//
//   - dataset: column-ordered frames, CSV and XLSX readers
//   - ingest, clean: loading and cleaning stages
//   - features: schema-driven encoding and correlation-based selection
//   - training: split, roster and model selection
//   - linear, sklearn/linear_model, sklearn/tree, sklearn/ensemble, sklearn/boosting: regressors
//   - preprocessing: StandardScaler
//   - metrics: R², MAE, MSE, RMSE
//   - artifact: gob persistence of the winning model
//   - inference, web, cmd/examscore: scoring surfaces
//   - config, pkg/log, pkg/errors: configuration, logging, errors
package examscore
