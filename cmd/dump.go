package main

import (
	"fmt"
	"symscanner/internal/cfg"

	"github.com/spf13/cobra"
)

var dumpCommand = &cobra.Command{
	Use:   "dump",
	Short: "load a program and print its control-flow graphs",
	Long:  ``,
	RunE: func(*cobra.Command, []string) error {
		return dump()
	},
}

var (
	Method string
)

func init() {
	dumpCommand.Flags().StringVar(&Method, "method", "", "only print this method")
}

func dump() error {
	if _, err := setup(); err != nil {
		return err
	}
	program, err := loadProgram()
	if err != nil {
		return err
	}
	for _, m := range program.MethodList() {
		if Method != "" && m.Symbol != Method {
			continue
		}
		fmt.Println(cfg.Dump(m))
	}
	return nil
}
