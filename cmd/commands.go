package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evilmagics/dataset_merger/internal/config"
	"github.com/evilmagics/dataset_merger/internal/services"
	"github.com/evilmagics/dataset_merger/internal/utils"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge <project-id> <project-id>...",
	Short: "Merge project datasets into one with a unified class list",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runMerge,
}

var splitCmd = &cobra.Command{
	Use:   "split <dataset>",
	Short: "Shuffle a flat images/labels pool into train, val and test",
	Args:  cobra.ExactArgs(1),
	RunE:  runSplit,
}

var reportCmd = &cobra.Command{
	Use:   "report <dataset>",
	Short: "Count images per split and per project id",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

var reportResolutionCmd = &cobra.Command{
	Use:   "report-resolution <dataset> [resolution]",
	Short: "Report the images of one resolution bucket per project",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runReportResolution,
}

var resolutionsCmd = &cobra.Command{
	Use:   "resolutions <dataset>",
	Short: "Count images per resolution",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolutions,
}

var organizeCmd = &cobra.Command{
	Use:   "organize <dataset>",
	Short: "Copy images and labels into per-resolution buckets",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrganize,
}

var removeClassesCmd = &cobra.Command{
	Use:   "remove-classes <dataset> <class>...",
	Short: "Drop every box of the given classes (ids or names)",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runRemoveClasses,
}

var changeClassCmd = &cobra.Command{
	Use:   "change-class <dataset> <from> <to>",
	Short: "Rewrite one class into another (ids or names)",
	Args:  cobra.ExactArgs(3),
	RunE:  runChangeClass,
}

func init() {
	splitCmd.Flags().Float64("train", 0, "train ratio (default from config)")
	splitCmd.Flags().Float64("val", 0, "val ratio (default from config)")
	splitCmd.Flags().Float64("test", 0, "test ratio (default from config)")
}

// resolveDataset accepts a dataset path or a project id. Compound ids such
// as 60_61 resolve to merged datasets.
func resolveDataset(arg string) (string, error) {
	if ok, _ := afero.DirExists(osFs, arg); ok {
		return arg, nil
	}
	return services.NewLocator(conf, osFs).Locate(arg)
}

// decimal parses a base-10 id. cast reads a leading zero as octal, so the
// zeros are stripped first and anything but plain digits is rejected.
func decimal(s string) (int, error) {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, fmt.Errorf("%q is not a decimal number", s)
	}
	if s = strings.TrimLeft(s, "0"); s == "" {
		s = "0"
	}
	return cast.ToIntE(s)
}

func parseInts(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, a := range args {
		id, err := decimal(a)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", a, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// classIDs accepts class ids or class names; names are looked up in the
// data.yaml of dataset.
func classIDs(dataset string, args []string) ([]int, error) {
	var names *config.Dataset

	ids := make([]int, 0, len(args))
	for _, a := range args {
		if id, err := decimal(a); err == nil {
			ids = append(ids, id)
			continue
		}

		if names == nil {
			d, err := config.LoadDataset(osFs, filepath.Join(dataset, utils.DataYAML))
			if err != nil {
				return nil, fmt.Errorf("class %q is not an id and %s has no readable %s: %w", a, dataset, utils.DataYAML, err)
			}
			names = d
		}
		id, ok := names.GetClassId(a)
		if !ok {
			return nil, fmt.Errorf("unknown class %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func runMerge(_ *cobra.Command, args []string) error {
	ids, err := parseInts(args)
	if err != nil {
		return err
	}

	result, err := services.NewMerger(conf, osFs).Merge(ids)
	if len(result.Unresolved) > 0 {
		warn("Not found: %v", result.Unresolved)
	}
	if err != nil {
		return err
	}

	title("Merged %d projects", len(result.Resolved))
	field("Path", result.Path)
	field("Images", count(result.Copied.Images))
	field("Labels", count(result.Copied.Labels))
	field("Classes", utils.Wrap(strings.Join(result.Reconcile.Classes, ", "), 120))
	field("Boxes kept", count(result.Reconcile.Lines.Kept))
	if result.Reconcile.Lines.Dropped+result.Reconcile.Lines.Unparsable > 0 {
		warn("Boxes dropped: %s, unparsable lines: %s",
			count(result.Reconcile.Lines.Dropped), count(result.Reconcile.Lines.Unparsable))
	}
	if len(result.Pruned) > 0 {
		field("Empty labels removed", count(len(result.Pruned)))
	}
	return reportErrors(result.Errors)
}

func runSplit(cmd *cobra.Command, args []string) error {
	dataset, err := resolveDataset(args[0])
	if err != nil {
		return err
	}

	ratios := conf.Split.SplitRatios
	flags := cmd.Flags()
	if flags.Changed("train") {
		ratios.Train, _ = flags.GetFloat64("train")
	}
	if flags.Changed("val") {
		ratios.Val, _ = flags.GetFloat64("val")
	}
	if flags.Changed("test") {
		ratios.Test, _ = flags.GetFloat64("test")
	}

	result, err := services.NewSplitter(conf, osFs).Split(dataset, ratios)
	if err != nil {
		return err
	}

	title("Split %s", dataset)
	for _, split := range utils.Splits {
		field(string(split), count(len(result.Partition(split))))
	}
	if len(result.Orphans) > 0 {
		warn("Images without label: %s", count(len(result.Orphans)))
	}
	if len(result.Removed) > 0 {
		warn("Empty pairs removed: %s", count(len(result.Removed)))
	}
	return reportErrors(result.Errors)
}

func runReport(_ *cobra.Command, args []string) error {
	dataset, err := resolveDataset(args[0])
	if err != nil {
		return err
	}

	reporter := services.NewReporter(conf, osFs)
	report, err := reporter.Report(dataset)
	if err != nil {
		return err
	}
	path, err := reporter.WriteReport(report)
	if err != nil {
		return err
	}

	for _, line := range report.Lines() {
		fmt.Println(line)
	}
	field("Report", path)
	return nil
}

func runReportResolution(_ *cobra.Command, args []string) error {
	dataset, err := resolveDataset(args[0])
	if err != nil {
		return err
	}
	resolution := conf.Report.Resolution
	if len(args) > 1 {
		resolution = args[1]
	}

	reporter := services.NewReporter(conf, osFs)
	report, err := reporter.ResolutionReport(dataset, resolution)
	if err != nil {
		return err
	}
	summary, detail, err := reporter.WriteResolutionReport(report)
	if err != nil {
		return err
	}

	for _, line := range report.Consolidated() {
		fmt.Println(line)
	}
	field("Summary", summary)
	field("Detail", detail)
	return nil
}

func runResolutions(_ *cobra.Command, args []string) error {
	dataset, err := resolveDataset(args[0])
	if err != nil {
		return err
	}

	result, err := services.NewOrganizer(conf, osFs).Resolutions(dataset)
	if err != nil {
		return err
	}

	title("Resolutions of %s", dataset)
	printBuckets(result)
	return nil
}

func runOrganize(_ *cobra.Command, args []string) error {
	dataset, err := resolveDataset(args[0])
	if err != nil {
		return err
	}

	result, err := services.NewOrganizer(conf, osFs).OrganizeByResolution(dataset)
	if err != nil {
		return err
	}

	title("Organized %s", dataset)
	printBuckets(result)
	if len(result.MissingLabels) > 0 {
		warn("Images without label: %s", count(len(result.MissingLabels)))
	}
	return reportErrors(result.Errors)
}

func runRemoveClasses(_ *cobra.Command, args []string) error {
	dataset, err := resolveDataset(args[0])
	if err != nil {
		return err
	}
	classes, err := classIDs(dataset, args[1:])
	if err != nil {
		return err
	}

	result, err := services.NewLabelEditor(conf, osFs).RemoveClasses(dataset, classes)
	if err != nil {
		return err
	}
	printEdit(dataset, result)
	return reportErrors(result.Errors)
}

func runChangeClass(_ *cobra.Command, args []string) error {
	dataset, err := resolveDataset(args[0])
	if err != nil {
		return err
	}
	ids, err := classIDs(dataset, args[1:])
	if err != nil {
		return err
	}

	result, err := services.NewLabelEditor(conf, osFs).ChangeClass(dataset, ids[0], ids[1])
	if err != nil {
		return err
	}
	printEdit(dataset, result)
	return reportErrors(result.Errors)
}

func printBuckets(result *services.OrganizeResult) {
	buckets := make([]string, 0, len(result.Buckets))
	for res := range result.Buckets {
		buckets = append(buckets, res)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if result.Buckets[buckets[i]] != result.Buckets[buckets[j]] {
			return result.Buckets[buckets[i]] > result.Buckets[buckets[j]]
		}
		return buckets[i] < buckets[j]
	})

	for _, res := range buckets {
		field(res, count(result.Buckets[res]))
	}
	if len(result.Unreadable) > 0 {
		warn("Unreadable images: %s", count(len(result.Unreadable)))
	}
}

func printEdit(dataset string, result *services.EditResult) {
	title("Edited %s", dataset)
	field("Labels modified", count(len(result.Modified)))
	field("Pairs removed", count(len(result.Removed)))
}
