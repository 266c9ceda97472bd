package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/samuelfneumann/gowalk/agent/recurrentac"
	"github.com/samuelfneumann/gowalk/experiment"
	"github.com/samuelfneumann/gowalk/experiment/checkpointer"
	"github.com/samuelfneumann/gowalk/experiment/tracker"
	"github.com/samuelfneumann/gowalk/experiment/trackers"
	"github.com/samuelfneumann/gowalk/task"
	"github.com/samuelfneumann/gowalk/utils/progressbar"
	"github.com/samuelfneumann/gowalk/utils/randutils"
	"gonum.org/v1/gonum/stat"
)

func main() {
	configPath := flag.String("config", "", "task configuration file; "+
		"the default task is used if empty")
	writeConfig := flag.String("write-config", "", "write the task "+
		"configuration to this file and exit")
	outDir := flag.String("out", ".", "directory of the tracked data")
	rollouts := flag.Int("rollouts", 10, "number of rollouts")
	seed := flag.Uint64("seed", 192382, "random seed")
	checkpoint := flag.Int("checkpoint", 5, "save the policy weights "+
		"every this many rollouts")
	weights := flag.String("weights", "", "policy weights to load")
	flag.Parse()

	c := task.Default()
	if *configPath != "" {
		var err error
		if c, err = task.Load(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if *writeConfig != "" {
		if err := c.Save(*writeConfig); err != nil {
			log.Fatal(err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	modelKey, rolloutKey := randutils.NewKey(*seed).Split2()
	t, err := task.Build(c, modelKey)
	if err != nil {
		log.Fatal(err)
	}
	ac, ok := t.Evaluator.(*recurrentac.Evaluator)
	if !ok {
		log.Fatalf("cannot checkpoint evaluator of type %T", t.Evaluator)
	}
	if *weights != "" {
		if err := checkpointer.Load(*weights, ac.Model()); err != nil {
			log.Fatal(err)
		}
	}
	saver := checkpointer.NewNStep(*checkpoint, ac.Model(),
		checkpointer.FilenameEnumerator(0, filepath.Join(*outDir, "weights"),
			".bin"))

	provider, err := t.Kinematic()
	if err != nil {
		log.Fatal(err)
	}

	db, err := trackers.NewSQLite(ctx, filepath.Join(*outDir, "rewards.db"),
		uuid.Nil, fmt.Sprintf("kinematic rollout, seed %v", *seed))
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("run %v", db.RunID())

	returns := filepath.Join(*outDir, "returns.bin")
	r, err := t.NewRollout(provider, rolloutKey,
		trackers.NewReturn(returns),
		trackers.NewEpisodeLength(filepath.Join(*outDir, "lengths.bin")),
		tracker.Register(trackers.NewReturn(
			filepath.Join(*outDir, "feet_phase.bin")), "feet_phase"),
		db,
	)
	if err != nil {
		log.Fatal(err)
	}

	bar := progressbar.New(os.Stdout, 40, *rollouts)
	var last experiment.Summary
	for i := 0; i < *rollouts; i++ {
		seg, err := r.Run(ctx, c.RolloutLength)
		if err != nil {
			log.Fatal(err)
		}
		eval, err := r.Evaluate(seg)
		if err != nil {
			log.Fatal(err)
		}

		if err := saver.Checkpoint(i + 1); err != nil {
			log.Fatal(err)
		}

		last = experiment.Summarize(eval)
		bar.Increment(1)
		bar.SetStatus("reward %.3f", last.Reward)
		bar.Display()
	}
	bar.Close()

	if err := r.Save(); err != nil {
		log.Fatal(err)
	}

	for _, term := range last.Terms {
		fmt.Printf("%-30s %10.4f\n", term.Name, term.Mean)
	}
	fmt.Printf("log prob %.3f ± %.3f, value %.3f ± %.3f\n", last.LogProb,
		last.LogProbStd, last.Value, last.ValueStd)

	data, err := tracker.LoadData(returns)
	if err != nil {
		log.Fatal(err)
	}
	if len(data) > 0 {
		mean, std := stat.MeanStdDev(data, nil)
		fmt.Printf("%d episodes, return %.3f ± %.3f\n", len(data), mean, std)
	}
}
