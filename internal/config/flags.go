// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-n node RPC endpoint URL
//	-contract SS58 address of the vault contract
//	-profile name of a stored connection profile
//	-d profile database path
//	-a bridge HTTP address in format [host]:[port]
//	-mode bridge transport mode ("native" or "http")
//	-request-timeout bridge request timeout (e.g., "30s", "1m")
//	-c/-config json file path with configs
//
// The signing key has no flag on purpose: it is supplied via the
// LEDGER_PRIVATE_KEY environment variable or a stored profile only.
func ParseFlags() *StructuredConfig {
	var bridgeAddress NetAddress
	var nodeURL string
	var contract string
	var profile string
	var databaseDSN string
	var bridgeMode string
	var requestTimeout time.Duration
	var jsonConfigPath string

	flag.StringVar(&nodeURL, "n", "", "Node RPC endpoint URL")
	flag.StringVar(&contract, "contract", "", "Vault contract SS58 address")
	flag.StringVar(&profile, "profile", "", "Stored connection profile name")
	flag.StringVar(&databaseDSN, "d", "", "Profile database path")
	flag.Var(&bridgeAddress, "a", "Bridge HTTP address host:port")
	flag.StringVar(&bridgeMode, "mode", "", `Bridge transport mode ("native" or "http")`)
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Bridge request timeout (e.g., 30s, 1m)")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")

	flag.Parse()

	return &StructuredConfig{
		Ledger: Ledger{
			NodeURL:  nodeURL,
			Contract: contract,
			Profile:  profile,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
		},
		Bridge: Bridge{
			Mode:           bridgeMode,
			HTTPAddress:    bridgeAddress.String(),
			RequestTimeout: requestTimeout,
		},
		JSONFilePath: jsonConfigPath,
	}
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns the empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
