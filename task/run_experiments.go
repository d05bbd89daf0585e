package task

import (
	"context"
	"fmt"
	"io/ioutil"
	"path/filepath"

	"efim/dataset"
	"efim/filestore"
	"efim/huim"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

var experimentLog = taskLog.WithField("prefix", "Task#RunExperiments")

const (
	VariantBase      = "base"
	VariantNoMerge   = "nomerge"
	VariantNoSubtree = "nosubtree"
)

var ErrUnknownVariant = errors.New("unknown variant")

type ExperimentDataset struct {
	File     string    `yaml:"file"`
	MinUtils []float64 `yaml:"min_utils"`
}

// ExperimentPlan runs every dataset at every min utility with every variant.
// Thresholds are multiplied by MinUtilScale.
type ExperimentPlan struct {
	Separator    string              `yaml:"separator"`
	NumRoutines  int                 `yaml:"num_routines"`
	MinUtilScale float64             `yaml:"min_util_scale"`
	Variants     []string            `yaml:"variants"`
	Datasets     []ExperimentDataset `yaml:"datasets"`
}

type ExperimentResult struct {
	Dataset string
	Variant string
	MinUtil int64
	RunID   string
	Stats   huim.RunStats
}

func ParseExperimentPlan(raw []byte) (*ExperimentPlan, error) {
	plan := &ExperimentPlan{}
	if err := yaml.Unmarshal(raw, plan); err != nil {
		return nil, errors.Wrap(err, "parsing experiment plan")
	}
	if plan.Separator == "" {
		plan.Separator = dataset.DefaultSeparator
	}
	if plan.NumRoutines < 1 {
		plan.NumRoutines = 1
	}
	if plan.MinUtilScale == 0 {
		plan.MinUtilScale = 1
	}
	if len(plan.Variants) == 0 {
		plan.Variants = []string{VariantBase, VariantNoMerge, VariantNoSubtree}
	}
	for _, variant := range plan.Variants {
		if _, err := variantOptions(variant, huim.Options{}); err != nil {
			return nil, err
		}
	}
	for _, d := range plan.Datasets {
		for _, minUtil := range d.MinUtils {
			if int64(minUtil*plan.MinUtilScale) <= 0 {
				return nil, errors.Wrapf(huim.ErrInvalidMinUtil, "%s: %v", d.File, minUtil)
			}
		}
	}
	return plan, nil
}

func ReadExperimentPlan(path string) (*ExperimentPlan, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading experiment plan %s", path)
	}
	return ParseExperimentPlan(raw)
}

func variantOptions(variant string, opts huim.Options) (huim.Options, error) {
	switch variant {
	case VariantBase:
	case VariantNoMerge:
		opts.DisableMerging = true
	case VariantNoSubtree:
		opts.DisableSubtreePruning = true
	default:
		return opts, errors.Wrap(ErrUnknownVariant, variant)
	}
	return opts, nil
}

// RunExperiments mines every run of the plan in order. Results of a run go under
// <dataset>_<variant>. The first failing run stops the plan.
func RunExperiments(ctx context.Context, inputManager, cloudManager filestore.FileManager,
	plan *ExperimentPlan) ([]ExperimentResult, error) {

	results := make([]ExperimentResult, 0)
	for _, d := range plan.Datasets {
		name := dataset.NameFromPath(d.File)
		for _, scaled := range d.MinUtils {
			minUtil := int64(scaled * plan.MinUtilScale)
			for _, variant := range plan.Variants {
				opts, err := variantOptions(variant, huim.Options{MinUtil: minUtil, NumRoutines: plan.NumRoutines})
				if err != nil {
					return results, err
				}
				experimentLog.WithFields(log.Fields{
					"dataset": name,
					"variant": variant,
					"minUtil": minUtil,
				}).Info("Running experiment.")

				res, err := MineHighUtility(ctx, inputManager, cloudManager, MineConfig{
					DatasetDir:  filepath.Dir(d.File),
					DatasetFile: filepath.Base(d.File),
					DatasetName: fmt.Sprintf("%s_%s", name, variant),
					Separator:   plan.Separator,
					Options:     opts,
				})
				if err != nil {
					return results, err
				}
				results = append(results, ExperimentResult{
					Dataset: name,
					Variant: variant,
					MinUtil: minUtil,
					RunID:   res.RunID,
					Stats:   res.Stats,
				})
			}
		}
	}
	return results, nil
}
