package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Akenaide/byemail/pkg/config"
	"github.com/Akenaide/byemail/pkg/dkim"
)

func dkimConfig(cfg config.Config) dkim.Config {
	return dkim.Config{
		Selector:       cfg.DKIM.Selector,
		Domain:         cfg.DKIM.Domain,
		PrivateKeyPath: cfg.DKIM.PrivateKey,
		PublicKeyPath:  cfg.DKIM.PublicKey,
	}
}

func newGenerateKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generatekeys",
		Short: "Generate the DKIM key pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return dkim.GenerateKeys(dkimConfig(cfg))
		},
	}
}

func newDNSConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dnsconfig",
		Short: "Print the guessed DNS records for each accepted domain",
		Long:  "Prints the MX, SPF, DKIM and DMARC records to publish. Run it on the server where byemail will listen, since the external IP is guessed from there.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			externalIP, err := dkim.ExternalIP(cmd.Context())
			if err != nil {
				return err
			}

			publicKey, err := dkim.PublicKeyTXT(cfg.DKIM.PublicKey)
			if err != nil {
				return err
			}

			fmt.Println("# This is the guessed configuration for your domains.")
			fmt.Println("# Remember to run this command on the server where byemail listens.")
			for _, domain := range cfg.Accept {
				domain = strings.TrimPrefix(domain, ".")
				dkimDomain := cfg.DKIM.Domain
				if dkimDomain == "" {
					dkimDomain = domain
				}
				records := dkim.Records(dkim.RecordsInput{
					Domain:     domain,
					Selector:   cfg.DKIM.Selector,
					DKIMDomain: dkimDomain,
					ExternalIP: externalIP,
					PublicKey:  publicKey,
				})
				fmt.Printf("\n--- For domain %s\n\n", domain)
				fmt.Println(strings.Join(records, "\n"))
			}
			fmt.Println("\n---")
			return nil
		},
	}
}
