package main

import (
	"errors"
	"fmt"
	"os"

	"custody-go/internal/app"
	"custody-go/internal/encryption"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassphrase returns $CUSTODY_PASSPHRASE when set and otherwise prompts
// on the terminal without echo.
func readPassphrase(prompt string) (string, error) {
	return readSecret("CUSTODY_PASSPHRASE", prompt)
}

// readSecret returns $envVar when set and otherwise prompts on the terminal
// without echo.
func readSecret(envVar, prompt string) (string, error) {
	if v := os.Getenv(envVar); v != "" {
		return v, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal to read from: set %s", envVar)
	}
	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return string(secret), nil
}

// unlockIfSealed asks for the passphrase when stored content is encrypted.
func unlockIfSealed(a *app.CustodyApp) error {
	if !a.Sealed() {
		return nil
	}
	pw, err := readPassphrase("Passphrase: ")
	if err != nil {
		return err
	}
	return a.Unlock(pw)
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage the encryption key pair",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a passphrase-protected key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
		if err != nil {
			return err
		}
		if enc == nil {
			return errors.New("encryption is disabled: set [encryption] type = \"age\" first")
		}
		if enc.IsConfigured() {
			return fmt.Errorf("keys already exist at %s", cfg.Encryption.PublicKeyPath)
		}

		pw, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		if os.Getenv("CUSTODY_PASSPHRASE") == "" {
			again, err := readPassphrase("Repeat passphrase: ")
			if err != nil {
				return err
			}
			if again != pw {
				return errors.New("passphrases do not match")
			}
		}
		if pw == "" {
			return errors.New("passphrase must not be empty")
		}

		if err := enc.Setup(pw); err != nil {
			return fmt.Errorf("generating keys: %w", err)
		}
		if age, ok := enc.(*encryption.AgeEncryptor); ok {
			if r, err := age.Recipient(); err == nil {
				fmt.Printf("Recipient:   %s\n", r)
			}
		}
		fmt.Printf("Public key:  %s\n", cfg.Encryption.PublicKeyPath)
		fmt.Printf("Private key: %s\n", cfg.Encryption.PrivateKeyPath)
		return nil
	},
}

func init() {
	keysCmd.AddCommand(keysInitCmd)
}
