package main

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/crhntr/gridcalc/expression"
)

func (c *cli) evalCommand() *cobra.Command {
	var (
		cells   []string
		body    bool
		explain bool
	)
	cmd := &cobra.Command{
		Use:   "eval [--cell ID=TEXT]... TEXT",
		Short: "Evaluate cell text against the given cells",
		Example: `  gridcalc eval "=3*3"
  gridcalc eval --cell A1=2 --cell "B1==A1*5" "=B1 + 1"
  gridcalc eval --expr --explain "(a1+1) * 2" --cell A1=3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := parseCells(cells)
			if err != nil {
				return err
			}
			c.log.WithFields(logrus.Fields{"text": args[0], "cells": len(table)}).Debug("evaluating")

			parse := expression.Parse
			if body {
				parse = expression.ParseExpr
			}
			e, err := parse(args[0])
			if err != nil {
				return fmt.Errorf("evaluate %q: %w", args[0], err)
			}
			out := cmd.OutOrStdout()
			if explain {
				if _, err := fmt.Fprintln(out, expression.Format(e)); err != nil {
					return err
				}
			}

			ev := expression.Evaluator{MaxDepth: c.config.MaxDepth}
			value, err := ev.EvaluateExpr(e, table)
			if err != nil {
				return fmt.Errorf("evaluate %q: %w", args[0], err)
			}
			_, err = fmt.Fprintln(out, value)
			return err
		},
	}
	cmd.Flags().StringArrayVar(&cells, "cell", nil, "cell text as ID=TEXT, for example B1==A1*5 (repeatable)")
	cmd.Flags().BoolVar(&body, "expr", false, "TEXT is a formula without the leading =")
	cmd.Flags().BoolVar(&explain, "explain", false, "print the normalized formula before the value")
	return cmd
}

func parseCells(cells []string) (expression.MapTable, error) {
	table := make(expression.MapTable, len(cells))
	for _, cell := range cells {
		id, text, ok := strings.Cut(cell, "=")
		if !ok {
			return nil, fmt.Errorf("cell %q must have the form ID=TEXT", cell)
		}
		pos, err := expression.ParsePosition(strings.TrimSpace(id))
		if err != nil {
			return nil, fmt.Errorf("cell %q: %w", cell, err)
		}
		if _, exists := table[pos]; exists {
			return nil, fmt.Errorf("cell %s given more than once", pos)
		}
		table[pos] = text
	}
	return table, nil
}
