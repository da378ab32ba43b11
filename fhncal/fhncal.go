/*

Fhncal calibrates the reaction parameter of the FitzHugh-Nagumo
equation from noisy observations of the solution using the t-walk MCMC
sampler.

The basic usage looks like this:

	fhncal

, this will generate synthetic data for the default true parameter and
sample the posterior with the finite-difference forward map.

You can switch to the closed-form forward map and change the chain
length:

	fhncal -exact -iter 200000

To see all the options run:

	fhncal -h

*/
package main

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"runtime/pprof"
	"syscall"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"

	"bitbucket.org/Cricelio/fhncal/checkpoint"
	"bitbucket.org/Cricelio/fhncal/fhn"
	"bitbucket.org/Cricelio/fhncal/twalk"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("fhncal")
var formatter = logging.MustStringFormatter(`%{message}`)

// command-line options
var (
	// application
	app = kingpin.New("fhncal", "FitzHugh-Nagumo parameter calibration with the t-walk sampler").Version(version)

	// problem parameters
	nObs      = app.Flag("nobs", "number of observation locations").Default("8").Int()
	nM        = app.Flag("nm", "grid cells between observation locations").Default("8").Int()
	tau       = app.Flag("tau", "observation time").Default("0.4").Float64()
	alpha     = app.Flag("alpha", "stability parameter, dt=dx^2/alpha").Default("1.3333333333333333").Float64()
	trueTheta = app.Flag("theta", "true parameter used to generate the data").Default("0.3").Float64()
	sigma     = app.Flag("sigma", "observation noise standard deviation").Default("0.007").Float64()
	priorP    = app.Flag("priorp", "beta prior shape p").Default("2").Float64()
	priorQ    = app.Flag("priorq", "beta prior shape q").Default("3.5").Float64()
	exact     = app.Flag("exact", "use the closed-form forward map instead of the finite-difference solver").Bool()

	// sampler parameters
	iterations = app.Flag("iter", "number of iterations").Default("10000").Int()
	report     = app.Flag("report", "report every N iterations").Default("10").Int()
	accept     = app.Flag("accept", "report acceptance rate every N iterations").Default("200").Int()
	burnIn     = app.Flag("burnin", "fraction of the chain to discard before summaries").Default("0.4").Float64()

	// technical
	seed       = app.Flag("seed", "random generator seed, default time based").Default("-1").Int64()
	dataSeed   = app.Flag("dataseed", "random generator seed for synthetic data").Default("23").Int64()
	cpuProfile = app.Flag("cpuprofile", "write cpu profile to file").String()

	// input/output
	outLogF      = app.Flag("log", "write log to a file").String()
	outF         = app.Flag("out", "write sampling trajectory to a file").String()
	checkpointF  = app.Flag("checkpoint", "checkpoint database filename").String()
	checkpointDT = app.Flag("cpinterval", "checkpoint save interval in seconds").Default("30").Float64()
	logLevel     = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
	jsonF = app.Flag("json", "write json output to a file").String()
)

func run() (summary *RunSummary) {
	startTime := time.Now()
	summary = &RunSummary{
		Iterations: *iterations,
		TrueTheta:  *trueTheta,
		BurnIn:     *burnIn,
	}

	mesh, err := fhn.NewMesh(*nObs, *nM, *tau, *alpha)
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("Mesh: nx=%d, dx=%g, dt=%g, %d time steps", mesh.Nx, mesh.Dx, mesh.Dt, mesh.NT)

	// Synthetic data uses its own random stream so the chain is not
	// coupled to data generation.
	dataRng := rand.New(rand.NewSource(*dataSeed))
	data := fhn.MakeData(dataRng, mesh, *trueTheta, *sigma)
	log.Infof("Generated %d observations at t=%v (theta=%v, sigma=%v)",
		len(data), *tau, *trueTheta, *sigma)

	var fm fhn.ForwardMap
	if *exact {
		log.Info("Using the closed-form forward map")
		fm = fhn.NewExact(mesh)
	} else {
		log.Info("Using the finite-difference forward map")
		fm = fhn.NewNumeric(mesh)
	}

	posterior := fhn.NewPosterior(fm, data, *sigma, *priorP, *priorQ)

	sampler, err := twalk.New(posterior, 1, *seed, twalk.NewSettings())
	if err != nil {
		log.Fatal(err)
	}
	sampler.AccPeriod = *accept
	sampler.SetReportPeriod(*report)
	sampler.WatchSignals(os.Interrupt, syscall.SIGUSR2)

	f := os.Stdout
	if *outF != "" {
		f, err = os.Create(*outF)
		if err != nil {
			log.Fatal("Error creating trajectory file:", err)
		}
		defer f.Close()
	}
	sampler.SetTrajectoryOutput(f)

	var resumed *checkpoint.ChainState
	if *checkpointF != "" {
		db, err := bolt.Open(*checkpointF, 0666, nil)
		if err != nil {
			log.Fatal("Error opening checkpoint database:", err)
		}
		defer db.Close()
		cp := checkpoint.NewCheckpointIO(db, []byte("chain"), *checkpointDT)
		sampler.SetCheckpointIO(cp)
		resumed, err = cp.GetState()
		if err != nil {
			log.Fatal("Error reading checkpoint:", err)
		}
		if resumed != nil && resumed.Final {
			log.Notice("Checkpoint is from a finished run, starting fresh")
			resumed = nil
		}
	}

	var trace *twalk.Trace
	if resumed != nil {
		log.Noticef("Resuming from checkpoint at iteration %d", resumed.Iter)
		trace, err = sampler.Run(*iterations, resumed.X, resumed.Xp)
	} else {
		trace, err = sampler.RunPrior(*iterations)
	}
	if err != nil {
		log.Fatal(err)
	}

	mapTheta, mapU := trace.MAP()
	post := trace.BurnIn(*burnIn)
	mean := post.Mean(0)
	sd := math.Sqrt(post.Variance(0))
	lo := post.Quantile(0, 0.025)
	hi := post.Quantile(0, 0.975)

	log.Noticef("MAP: theta=%f (U=%f)", mapTheta[0], mapU)
	log.Noticef("Posterior: mean=%f, sd=%f, 95%% CI [%f, %f]", mean, sd, lo, hi)
	log.Noticef("True theta: %f", *trueTheta)

	summary.Seed = *seed
	summary.DataSeed = *dataSeed
	summary.AcceptanceRate = sampler.AcceptanceRate()
	summary.EvalFailures = sampler.EvalFailures()
	summary.MAP = mapTheta[0]
	summary.MAPEnergy = mapU
	summary.PosteriorMean = mean
	summary.PosteriorSD = sd
	summary.CI95 = [2]float64{lo, hi}

	deltaT := time.Since(startTime)
	log.Noticef("Running time: %v", deltaT)
	summary.Time = deltaT.Seconds()

	return summary
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	// logging
	logging.SetFormatter(formatter)

	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		defer f.Close()
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	logging.SetLevel(level, "fhncal")
	logging.SetLevel(level, "twalk")
	logging.SetLevel(level, "checkpoint")

	// print revision
	log.Info(version)

	// print commandline
	log.Info("Command line:", os.Args)

	if *seed == -1 {
		*seed = time.Now().UnixNano()
		log.Debug("Random seed from time")
	}
	log.Infof("Random seed=%v", *seed)

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	summary := run()
	summary.Version = version
	summary.CommandLine = os.Args

	// output summary in json format
	if *jsonF != "" {
		j, err := json.Marshal(summary)
		if err != nil {
			log.Error(err)
		} else {
			log.Debug(string(j))
			f, err := os.Create(*jsonF)
			if err != nil {
				log.Error("Error creating json output file:", err)
			} else {
				f.Write(j)
				f.Close()
			}
		}
	}
}
