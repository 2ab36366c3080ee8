// Package config loads scenarios and server settings for the robot simulator.
//
// Manager is the scenario catalog: a directory of .json, .yaml and .yml
// scenario files, validated with engine.ValidateScenario and cached after
// the first load. The file stem is the scenario's catalog id. When the
// directory has no sandbox file the first valid scenario becomes the
// default, and an empty directory falls back to engine.DefaultScenario.
//
//	catalog, err := config.NewManager("configs/scenarios")
//	if err != nil {
//		return err
//	}
//	scenario, err := catalog.LoadScenario("wall-follow")
//
// LoadSettings reads the server settings with viper. Defaults come first,
// then an optional robosim.yaml, then ROBOSIM_* environment variables.
package config
