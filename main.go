package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"kemcheck/pkg/conformance"
	"kemcheck/pkg/kem"
)

// ------------------------ Commands ------------------------

func cmdList(w io.Writer, reg *kem.Registry, all bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ALGORITHM\tENABLED\tHINT\tPUBLIC KEY\tSECRET KEY\tCIPHERTEXT\tSHARED SECRET")
	for _, e := range reg.Entries() {
		if !e.Enabled && !all {
			continue
		}
		s := e.New()
		fmt.Fprintf(tw, "%s\t%t\t%s\t%d\t%d\t%d\t%d\n",
			e.Name, e.Enabled, e.Hint, s.PublicKeySize(), s.SecretKeySize(), s.CiphertextSize(), s.SharedSecretSize())
	}
	return tw.Flush()
}

// nonDeterministic lists the enabled algorithms a seed cannot reproduce.
func nonDeterministic(reg *kem.Registry) []string {
	var names []string
	for _, e := range reg.Entries() {
		if e.Enabled && !e.New().Deterministic() {
			names = append(names, e.Name)
		}
	}
	return names
}

type verifyOptions struct {
	Names       []string
	ConfigFile  string
	Workers     int // negative = take it from the config
	Seed        string
	MetricsFile string
	Out         io.Writer
}

func cmdVerify(opts verifyOptions) (conformance.Report, error) {
	reg := kem.Default()
	config := &Config{}
	if opts.ConfigFile != "" {
		var err error
		config, err = LoadConfig(opts.ConfigFile, reg)
		if err != nil {
			return conformance.Report{}, errors.Wrap(err, "failed to load config")
		}
	}
	reg = config.Apply(reg)

	if opts.Workers >= 0 {
		config.Runner.Workers = opts.Workers
	}
	if opts.Seed != "" {
		config.Runner.Seed = opts.Seed
	}
	if opts.MetricsFile != "" {
		config.Runner.MetricsFile = opts.MetricsFile
	}
	seed, err := config.SeedBytes()
	if err != nil {
		return conformance.Report{}, err
	}

	level := log.GetLevel()
	if config.Runner.LogLevel != "" {
		if level, err = logrusLevel(config.Runner.LogLevel); err != nil {
			return conformance.Report{}, err
		}
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	sink := conformance.NewSinkFromLogger(outputLogger(out, level))

	metricsRegistry := prometheus.NewRegistry()
	runner := &conformance.Runner{
		Registry: reg,
		Sink:     sink,
		Workers:  config.Runner.Workers,
		Metrics:  conformance.NewMetrics(metricsRegistry),
	}
	if seed != nil {
		runner.Rand = func(name string) io.Reader {
			return kem.DRBGFor(seed, name)
		}
		for _, name := range nonDeterministic(reg) {
			log.WithField("algorithm", name).Warn("seeded round trips are not reproducible")
		}
	}

	log.WithFields(logrus.Fields{
		"workers":       config.Runner.Workers,
		"deterministic": seed != nil,
	}).Debug("starting conformance run")

	rep := runner.Run(opts.Names...)
	sink.Summary(rep)

	if config.Runner.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(config.Runner.MetricsFile, metricsRegistry); err != nil {
			return rep, errors.Wrap(err, "failed to write metrics")
		}
	}

	if failed := rep.Failed(); len(failed) > 0 {
		return rep, errors.Errorf("%d of %d algorithms failed", len(failed), len(rep.Results))
	}
	return rep, nil
}

func cmdGenkey(w io.Writer, reg *kem.Registry, kemName, keyName string) error {
	k, err := reg.NewKeyEncapsulation(kemName)
	if err != nil {
		return errors.Wrapf(err, "available KEMs are %s", strings.Join(reg.ListEnabled(), ", "))
	}
	defer k.Clean()

	fmt.Fprintf(w, "Generating %s keypair...\n", kemName)

	publicKey, err := k.GenerateKeyPair()
	if err != nil {
		return errors.Wrap(err, "key generation failed")
	}
	secretKey, err := k.ExportSecretKey()
	if err != nil {
		return err
	}

	pubFile := keyName + ".pub"
	secFile := keyName + ".sec"

	if err := SavePublicKey(pubFile, kemName, publicKey); err != nil {
		return err
	}
	if err := SaveSecretKey(secFile, kemName, secretKey); err != nil {
		return err
	}

	fmt.Fprintf(w, "✓ Generated %s keypair\n", kemName)
	fmt.Fprintf(w, "  Public key:  %s (%d bytes)\n", pubFile, len(publicKey))
	fmt.Fprintf(w, "  Secret key:  %s (%d bytes)\n", secFile, len(secretKey))

	return nil
}

func cmdEncap(w io.Writer, reg *kem.Registry, pubFile, ctFile, ssFile string) error {
	algorithm, publicKey, err := LoadPublicKey(reg, pubFile)
	if err != nil {
		return err
	}

	k, err := reg.NewKeyEncapsulation(algorithm)
	if err != nil {
		return err
	}
	defer k.Clean()

	ciphertext, sharedSecret, err := k.EncapSecret(publicKey)
	if err != nil {
		return err
	}

	if err := writeBase64(ctFile, ciphertext, 0644); err != nil {
		return err
	}
	if err := writeBase64(ssFile, sharedSecret, 0600); err != nil {
		return err
	}

	fmt.Fprintf(w, "✓ Encapsulated with %s\n", algorithm)
	fmt.Fprintf(w, "  Ciphertext:    %s (%d bytes)\n", ctFile, len(ciphertext))
	fmt.Fprintf(w, "  Shared secret: %s (%d bytes)\n", ssFile, len(sharedSecret))
	return nil
}

func cmdDecap(w io.Writer, reg *kem.Registry, secFile, ctFile, ssFile string) error {
	algorithm, secretKey, err := LoadSecretKey(reg, secFile)
	if err != nil {
		return err
	}

	k, err := reg.NewKeyEncapsulationFromSecret(algorithm, secretKey)
	if err != nil {
		return err
	}
	defer k.Clean()

	ciphertext, err := readBase64(ctFile)
	if err != nil {
		return err
	}

	sharedSecret, err := k.DecapSecret(ciphertext)
	if err != nil {
		return err
	}

	if err := writeBase64(ssFile, sharedSecret, 0600); err != nil {
		return err
	}

	fmt.Fprintf(w, "✓ Decapsulated with %s\n", algorithm)
	fmt.Fprintf(w, "  Shared secret: %s (%d bytes)\n", ssFile, len(sharedSecret))
	return nil
}

// ------------------------ Cobra Commands ------------------------

var rootCmd = &cobra.Command{
	Use:   "kemcheck",
	Short: "kemcheck - KEM round-trip conformance checker",
	Long:  "Checks that every enabled key encapsulation mechanism derives the same shared secret on both sides of a keygen, encapsulation and decapsulation round trip.",
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		if level == "" {
			return nil
		}
		return setLogLevel(level)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List KEM algorithms",
	Long:  "List the enabled KEM algorithms with their resource hints and sizes.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		return cmdList(cmd.OutOrStdout(), kem.Default(), all)
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify [algorithm...]",
	Short: "Run round trips and compare shared secrets",
	Long:  "Run a keygen/encapsulation/decapsulation round trip for the named algorithms, or for every enabled one, and fail if any pair of shared secrets differs.",
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")
		workers, _ := cmd.Flags().GetInt("workers")
		seed, _ := cmd.Flags().GetString("seed")
		metricsFile, _ := cmd.Flags().GetString("metrics-file")

		_, err := cmdVerify(verifyOptions{
			Names:       args,
			ConfigFile:  configFile,
			Workers:     workers,
			Seed:        seed,
			MetricsFile: metricsFile,
			Out:         cmd.OutOrStdout(),
		})
		return err
	},
}

var genkeyCmd = &cobra.Command{
	Use:   "genkey",
	Short: "Generate a keypair",
	Long:  "Generate a keypair for the specified KEM algorithm.",
	RunE: func(cmd *cobra.Command, args []string) error {
		kemName, _ := cmd.Flags().GetString("kem")
		keyName, _ := cmd.Flags().GetString("name")

		if kemName == "" {
			return errors.Errorf("--kem flag is required\nAvailable KEM algorithms: %s", strings.Join(kem.ListEnabled(), ", "))
		}

		return cmdGenkey(cmd.OutOrStdout(), kem.Default(), kemName, keyName)
	},
}

var encapCmd = &cobra.Command{
	Use:   "encap",
	Short: "Encapsulate a shared secret to a public key file",
	RunE: func(cmd *cobra.Command, args []string) error {
		pub, _ := cmd.Flags().GetString("pub")
		ct, _ := cmd.Flags().GetString("ct")
		ss, _ := cmd.Flags().GetString("out")
		return cmdEncap(cmd.OutOrStdout(), kem.Default(), pub, ct, ss)
	},
}

var decapCmd = &cobra.Command{
	Use:   "decap",
	Short: "Decapsulate a ciphertext with a secret key file",
	RunE: func(cmd *cobra.Command, args []string) error {
		sec, _ := cmd.Flags().GetString("sec")
		ct, _ := cmd.Flags().GetString("ct")
		ss, _ := cmd.Flags().GetString("out")
		return cmdDecap(cmd.OutOrStdout(), kem.Default(), sec, ct, ss)
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Log level (panic, fatal, error, warn, info, debug, trace)")

	listCmd.Flags().BoolP("all", "a", false, "Include disabled algorithms")

	verifyCmd.Flags().StringP("config", "c", "", "Path to TOML configuration file")
	verifyCmd.Flags().IntP("workers", "w", -1, "Concurrent round trips (0 = one per algorithm, default from config)")
	verifyCmd.Flags().String("seed", "", "Hex seed for a reproducible run (P256-Kyber768 stays randomized)")
	verifyCmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this file")

	genkeyCmd.Flags().String("kem", "", "KEM algorithm - required")
	genkeyCmd.Flags().String("name", "key", "Key name (creates <name>.pub and <name>.sec)")

	encapCmd.Flags().String("pub", "", "Recipient public key file")
	encapCmd.Flags().String("ct", "ciphertext.b64", "Output ciphertext file")
	encapCmd.Flags().StringP("out", "o", "shared.b64", "Output shared secret file")
	_ = encapCmd.MarkFlagRequired("pub")

	decapCmd.Flags().String("sec", "", "Secret key file")
	decapCmd.Flags().String("ct", "ciphertext.b64", "Input ciphertext file")
	decapCmd.Flags().StringP("out", "o", "shared.b64", "Output shared secret file")
	_ = decapCmd.MarkFlagRequired("sec")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(genkeyCmd)
	rootCmd.AddCommand(encapCmd)
	rootCmd.AddCommand(decapCmd)
}

// ------------------------ Main ------------------------

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
