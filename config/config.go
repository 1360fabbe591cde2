// Copyright (c) 2025 Intuition Systems
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package config

import (
	"math/big"
	"os"
	"time"

	"github.com/pkg/errors"
	uconfig "go.uber.org/config"

	"github.com/0xIntuition/intuition-core/db"
	"github.com/0xIntuition/intuition-core/pkg/log"
)

// IMPORTANT: to define a config, add a field or a new config type to the existing config types. In addition, provide
// the default value in Default var.

// FeeDenominator is the basis point denominator every fee rate is expressed against
const FeeDenominator = 10000

var (
	// Default is the default config
	Default = Config{
		SubLogs: make(map[string]log.GlobalConfig),
		MultiVault: MultiVault{
			MinDepositStr:           "1000",
			GhostSharesStr:          "1000000",
			MaxAtomPayloadBytes:     1024,
			EntryFeeBps:             50,
			ExitFeeBps:              50,
			ProtocolFeeBps:          100,
			AtomWalletDepositFeeBps: 100,
			TripleCreationFeeStr:    "100000",
			AtomDepositFractionBps:  900,
			DefaultCurveID:          1,
			LinearPriceStr:          "1000000000000000000",
			ProgressiveSlopeStr:     "2000000000000",
			ProgressiveOffsetStr:    "1000000000",
		},
		Epochs: Epochs{
			Genesis: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			Length:  14 * 24 * time.Hour,
		},
		Emissions: Emissions{
			BaseEmissionStr: "1000000000000000000000000",
			CliffEpochs:     26,
			ReductionBps:    1000,
		},
		Bonding: Bonding{
			MinLockAmountStr:                 "1000",
			MaxLockDuration:                  2 * 365 * 24 * time.Hour,
			SystemUtilizationLowerBoundBps:   4000,
			PersonalUtilizationLowerBoundBps: 2500,
		},
		DB:  db.DefaultConfig,
		Log: log.GlobalConfig{},
	}

	// ErrInvalidCfg indicates the invalid config value
	ErrInvalidCfg = errors.New("invalid config")

	// Validates is the collection of all validation functions
	Validates = []Validate{
		ValidateFees,
		ValidateEpochs,
		ValidateEmissions,
		ValidateBonding,
	}
)

type (
	// MultiVault is the config for term creation and the vault share ledger
	MultiVault struct {
		MinDepositStr           string `yaml:"minDeposit"`
		GhostSharesStr          string `yaml:"ghostShares"`
		MaxAtomPayloadBytes     uint64 `yaml:"maxAtomPayloadBytes"`
		EntryFeeBps             uint64 `yaml:"entryFeeBps"`
		ExitFeeBps              uint64 `yaml:"exitFeeBps"`
		ProtocolFeeBps          uint64 `yaml:"protocolFeeBps"`
		AtomWalletDepositFeeBps uint64 `yaml:"atomWalletDepositFeeBps"`
		TripleCreationFeeStr    string `yaml:"tripleCreationFee"`
		AtomDepositFractionBps  uint64 `yaml:"atomDepositFractionBps"`
		DefaultCurveID          uint64 `yaml:"defaultCurveID"`
		LinearPriceStr          string `yaml:"linearPrice"`
		ProgressiveSlopeStr     string `yaml:"progressiveSlope"`
		ProgressiveOffsetStr    string `yaml:"progressiveOffset"`
	}

	// Epochs is the config for the epoch clock
	Epochs struct {
		Genesis time.Time     `yaml:"genesis"`
		Length  time.Duration `yaml:"length"`
	}

	// Emissions is the config for the per-epoch emission schedule
	Emissions struct {
		BaseEmissionStr string `yaml:"baseEmission"`
		CliffEpochs     uint64 `yaml:"cliffEpochs"`
		ReductionBps    uint64 `yaml:"reductionBps"`
	}

	// Bonding is the config for locked positions and reward claims
	Bonding struct {
		MinLockAmountStr                 string        `yaml:"minLockAmount"`
		MaxLockDuration                  time.Duration `yaml:"maxLockDuration"`
		SystemUtilizationLowerBoundBps   uint64        `yaml:"systemUtilizationLowerBoundBps"`
		PersonalUtilizationLowerBoundBps uint64        `yaml:"personalUtilizationLowerBoundBps"`
	}

	// Config is the root config struct, each package defines its own config structure
	Config struct {
		MultiVault MultiVault                 `yaml:"multiVault"`
		Epochs     Epochs                     `yaml:"epochs"`
		Emissions  Emissions                  `yaml:"emissions"`
		Bonding    Bonding                    `yaml:"bonding"`
		DB         db.Config                  `yaml:"db"`
		Log        log.GlobalConfig           `yaml:"log"`
		SubLogs    map[string]log.GlobalConfig `yaml:"subLogs"`
	}

	// Validate is the interface of validating the config
	Validate func(Config) error
)

// New creates a config instance. It first loads the default configs. If the config path is not empty, it will read
// from the file and override the default configs. By default, it will apply all validation functions. To bypass
// validation, use DoNotValidate instead.
func New(configPaths []string, validates ...Validate) (Config, error) {
	opts := make([]uconfig.YAMLOption, 0)
	opts = append(opts, uconfig.Static(Default))
	opts = append(opts, uconfig.Expand(os.LookupEnv))
	for _, path := range configPaths {
		if path != "" {
			opts = append(opts, uconfig.File(path))
		}
	}
	yaml, err := uconfig.NewYAML(opts...)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to init config")
	}

	var cfg Config
	if err := yaml.Get(uconfig.Root).Populate(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal YAML config to struct")
	}

	// By default, the config needs to pass all the validation
	if len(validates) == 0 {
		validates = Validates
	}
	for _, validate := range validates {
		if err := validate(cfg); err != nil {
			return Config{}, errors.Wrap(err, "failed to validate config")
		}
	}
	return cfg, nil
}

// MinDeposit returns the minimal deposit amount
func (mv MultiVault) MinDeposit() *big.Int { return mustBig(mv.MinDepositStr, "minimal deposit") }

// GhostShares returns the share floor minted at vault genesis
func (mv MultiVault) GhostShares() *big.Int { return mustBig(mv.GhostSharesStr, "ghost shares") }

// TripleCreationFee returns the flat fee charged on triple creation
func (mv MultiVault) TripleCreationFee() *big.Int {
	return mustBig(mv.TripleCreationFeeStr, "triple creation fee")
}

// LinearPrice returns the fixed share price of the linear curve
func (mv MultiVault) LinearPrice() *big.Int { return mustBig(mv.LinearPriceStr, "linear price") }

// ProgressiveSlope returns the slope of the progressive curves
func (mv MultiVault) ProgressiveSlope() *big.Int {
	return mustBig(mv.ProgressiveSlopeStr, "progressive slope")
}

// ProgressiveOffset returns the supply offset of the offset progressive curve
func (mv MultiVault) ProgressiveOffset() *big.Int {
	return mustBig(mv.ProgressiveOffsetStr, "progressive offset")
}

// MinLockAmount returns the minimal lockable amount
func (b Bonding) MinLockAmount() *big.Int { return mustBig(b.MinLockAmountStr, "minimal lock amount") }

// BaseEmission returns the emission of epoch zero
func (e Emissions) BaseEmission() *big.Int { return mustBig(e.BaseEmissionStr, "base emission") }

func mustBig(s, what string) *big.Int {
	v, ok := big.NewInt(0).SetString(s, 10)
	if !ok {
		log.S().Panicf("Error when parsing %s string: %s", what, s)
	}
	return v
}

// ValidateFees validates the fee rate configs
func ValidateFees(cfg Config) error {
	mv := cfg.MultiVault
	for _, bps := range []uint64{
		mv.EntryFeeBps, mv.ExitFeeBps, mv.ProtocolFeeBps, mv.AtomWalletDepositFeeBps, mv.AtomDepositFractionBps,
	} {
		if bps >= FeeDenominator {
			return errors.Wrap(ErrInvalidCfg, "fee rate must stay below the basis point denominator")
		}
	}
	if mv.MinDeposit().Sign() <= 0 {
		return errors.Wrap(ErrInvalidCfg, "minimal deposit must be positive")
	}
	if mv.GhostShares().Sign() <= 0 {
		return errors.Wrap(ErrInvalidCfg, "ghost shares must be positive")
	}
	if mv.MaxAtomPayloadBytes == 0 {
		return errors.Wrap(ErrInvalidCfg, "maximal atom payload must be positive")
	}
	if mv.TripleCreationFee().Sign() < 0 {
		return errors.Wrap(ErrInvalidCfg, "triple creation fee must not be negative")
	}
	return nil
}

// ValidateEpochs validates the epoch clock configs
func ValidateEpochs(cfg Config) error {
	if cfg.Epochs.Length <= 0 {
		return errors.Wrap(ErrInvalidCfg, "epoch length must be positive")
	}
	if cfg.Epochs.Genesis.IsZero() {
		return errors.Wrap(ErrInvalidCfg, "epoch genesis must be set")
	}
	return nil
}

// ValidateEmissions validates the emission schedule configs
func ValidateEmissions(cfg Config) error {
	if cfg.Emissions.BaseEmission().Sign() <= 0 {
		return errors.Wrap(ErrInvalidCfg, "base emission must be positive")
	}
	if cfg.Emissions.CliffEpochs == 0 {
		return errors.Wrap(ErrInvalidCfg, "cliff length must be positive")
	}
	if cfg.Emissions.ReductionBps > FeeDenominator {
		return errors.Wrap(ErrInvalidCfg, "emission reduction must stay within the basis point denominator")
	}
	return nil
}

// ValidateBonding validates the bonding configs
func ValidateBonding(cfg Config) error {
	b := cfg.Bonding
	if b.MaxLockDuration <= 0 {
		return errors.Wrap(ErrInvalidCfg, "maximal lock duration must be positive")
	}
	if b.MinLockAmount().Sign() <= 0 {
		return errors.Wrap(ErrInvalidCfg, "minimal lock amount must be positive")
	}
	if b.SystemUtilizationLowerBoundBps > FeeDenominator || b.PersonalUtilizationLowerBoundBps > FeeDenominator {
		return errors.Wrap(ErrInvalidCfg, "utilization lower bound must stay within the basis point denominator")
	}
	return nil
}

// DoNotValidate validates the given config
func DoNotValidate(cfg Config) error { return nil }
