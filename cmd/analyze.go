package main

import (
	"context"
	"fmt"
	"symscanner/internal/cfg"
	"symscanner/internal/config"
	"symscanner/internal/engine"
	"symscanner/internal/module"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var analyzeCommand = &cobra.Command{
	Use:   "analyze",
	Short: "analyze every method of a program",
	Long:  ``,
	RunE: func(*cobra.Command, []string) error {
		return analyzeExec()
	},
}

var (
	Workers    int
	ShowYields bool
)

func init() {
	analyzeCommand.Flags().IntVar(&Workers, "workers", 0, "methods analyzed concurrently, overrides analyzer.workers")
	analyzeCommand.Flags().BoolVar(&ShowYields, "yields", false, "print the computed method yields")
}

// setup loads the configuration and applies the command line overrides.
func setup() (config.Config, error) {
	conf, err := config.Load(ConfigFile)
	if err != nil {
		return config.Config{}, err
	}
	if LogLevel != "" {
		conf.Log.Level = LogLevel
	}
	if Workers > 0 {
		conf.Analyzer.Workers = Workers
	}
	level, err := log.ParseLevel(conf.Log.Level)
	if err != nil {
		return config.Config{}, errors.Wrap(err, "log level")
	}
	log.SetLevel(level)
	return conf, nil
}

func loadProgram() (*cfg.Program, error) {
	if ProgramFile == "" {
		return nil, errors.New("--file is required")
	}
	return cfg.LoadFile(ProgramFile)
}

func analyzeExec() error {
	conf, err := setup()
	if err != nil {
		return err
	}
	program, err := loadProgram()
	if err != nil {
		return err
	}
	analyzer := engine.NewAnalyzer(program, conf, module.Default())
	report, err := analyzer.Run(context.Background())
	if err != nil {
		return errors.Wrap(err, "analyze")
	}

	log.Infof("total issues found: %d", len(report.Issues))
	for _, is := range report.Issues {
		fmt.Println(is)
	}
	for _, res := range report.Results {
		if res.Status != engine.StatusComplete {
			fmt.Printf("%s: %s (%v)\n", res.Method, res.Status, res.Err)
		}
	}
	if ShowYields {
		for _, y := range report.Yields {
			fmt.Print(y)
		}
	}
	return nil
}
