package cmd

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"facecrop-go/internal/capture"
	"facecrop-go/internal/config"
	"facecrop-go/internal/detect"
	"facecrop-go/internal/perf"
)

// runOptions are the `run` flags; unset flags keep the [session] values.
type runOptions struct {
	OutputDir  string
	BaseName   string
	Delay      int
	Period     int
	Count      int
	Format     string
	Device     int
	Classifier string
	Duration   time.Duration
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Capture without a window until interrupted",
	Long: `Run a capture session headlessly. Faces found in each capture window are
written as <output>/<name>_<n>.<format>; the spinner shows how many crops were
saved. Stops on Ctrl+C, SIGTERM or after --duration.`,
	RunE: runHeadless,
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runOpts.OutputDir, "output", "o", "", "directory for the crops (default [session] output_dir)")
	f.StringVarP(&runOpts.BaseName, "name", "n", "", "file name prefix (default [session] base_name)")
	f.IntVar(&runOpts.Delay, "delay", 0, "seconds before the first capture window")
	f.IntVar(&runOpts.Period, "period", 0, "seconds between capture windows (>= 1)")
	f.IntVar(&runOpts.Count, "count", 0, "number of the first crop")
	f.StringVar(&runOpts.Format, "format", "", "crop format: jpg or png")
	f.IntVarP(&runOpts.Device, "device", "d", 0, "camera device index")
	f.StringVarP(&runOpts.Classifier, "classifier", "c", "", "haar, lbp or pigo (default [detection] classifier)")
	f.DurationVar(&runOpts.Duration, "duration", 0, "stop after this long (0 = until interrupted)")
	rootCmd.AddCommand(runCmd)
}

// sessionFromFlags overlays the flags the user actually set on base.
func sessionFromFlags(cmd *cobra.Command, opts runOptions, base config.Session) (config.Session, error) {
	s := base
	flags := cmd.Flags()
	if flags.Changed("output") {
		s.OutputDir = opts.OutputDir
	}
	if flags.Changed("name") {
		s.BaseName = opts.BaseName
	}
	var err error
	if flags.Changed("delay") {
		if s.InitialDelay, err = config.Seconds(opts.Delay); err != nil {
			return base, err
		}
	}
	if flags.Changed("period") {
		if s.Period, err = config.Seconds(opts.Period); err != nil {
			return base, err
		}
	}
	if flags.Changed("count") {
		s.StartCount = opts.Count
	}
	if flags.Changed("format") {
		s.Format = opts.Format
	}
	if flags.Changed("device") {
		s.DeviceIndex = opts.Device
	}
	if err = s.Validate(); err != nil {
		return base, err
	}
	return s, nil
}

func runHeadless(cmd *cobra.Command, args []string) error {
	sess, err := sessionFromFlags(cmd, runOpts, cfg.Session)
	if err != nil {
		return err
	}

	kind := cfg.Classifier
	if runOpts.Classifier != "" {
		kind = runOpts.Classifier
	}
	classifier, err := detect.Open(kind, cfg.ClassifierPath(kind))
	if err != nil {
		return err
	}
	engine := detect.NewEngine(classifier)
	defer engine.Close()

	source, err := newSource(cfg)
	if err != nil {
		return sourceError(cfg, err)
	}
	j, closeJournal := openJournal(cfg)
	defer closeJournal()

	presenter := newBarPresenter(sess.StartCount)
	session := capture.NewSession(source, engine, presenter, capture.Options{Journal: j})
	if err := session.Start(sess); err != nil {
		return err
	}

	ctx := cmd.Context()
	if runOpts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runOpts.Duration)
		defer cancel()
	}
	go perf.LogHealth(ctx, time.Duration(cfg.HealthLogIntervalSec*float64(time.Second)), session.Stats)

	<-ctx.Done()
	final := session.Stop()
	presenter.Finish()

	st := session.Stats()
	log.Printf("[Run] Session ended: %d frames, %d windows, %d crops", st.Frames, st.Windows, st.Crops)
	fmt.Printf("Saved %d crops to %s; next photo number is %d\n", final-sess.StartCount, displayDir(sess.OutputDir), final)
	return nil
}

func displayDir(dir string) string {
	if dir == "" {
		return "the working directory"
	}
	return dir
}

// barPresenter reports crop progress on a stderr spinner.
type barPresenter struct {
	bar    *progressbar.ProgressBar
	start  int
	frames atomic.Uint64
}

func newBarPresenter(start int) *barPresenter {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Capturing faces"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
	return &barPresenter{bar: bar, start: start}
}

func (p *barPresenter) ShowFrame(image.Image) {
	p.frames.Add(1)
}

func (p *barPresenter) ShowCount(n int) {
	p.bar.Describe(fmt.Sprintf("Capturing faces (next #%d)", n))
	p.bar.Set(n - p.start)
}

func (p *barPresenter) Finish() {
	p.bar.Finish()
	fmt.Fprintln(os.Stderr)
}
