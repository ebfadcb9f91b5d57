// Package pwd implements the interactive password prompts of the
// command line client. Passwords are never echoed; while typing a new
// password the prompt shows a strength estimate so weak passwords get
// caught before they seal a store.
package pwd

import (
	"bytes"
	"fmt"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
	"github.com/sahib/nandfs/util"
)

// scoreInfo maps a zxcvbn score (0 to 4) to prompt decoration.
// Anything below 2 is shown in warning colors.
var scoreInfo = []struct {
	symbol string
	paint  func(format string, args ...interface{}) string
}{
	{"✗", color.RedString},
	{"✗", color.RedString},
	{"⚡", color.MagentaString},
	{"⚠", color.YellowString},
	{"✔", color.GreenString},
}

func strengthPrompt(password []rune, prefix string) string {
	strength := zxcvbn.PasswordStrength(string(password), nil)
	info := scoreInfo[util.Min(strength.Score, len(scoreInfo)-1)]

	entropy := "   0"
	if strength.Entropy > 0 {
		entropy = fmt.Sprintf(" %3.0f", strength.Entropy)
	}

	return info.paint(info.symbol) +
		color.CyanString(entropy) +
		info.paint(" "+prefix+"passphrase: ")
}

// strengthConfig builds a password config whose prompt is redrawn
// with the current strength estimate on every keystroke.
func strengthConfig(rl *readline.Instance, prefix string) *readline.Config {
	cfg := rl.GenPasswordConfig()
	cfg.SetListener(func(line []rune, pos int, key rune) ([]rune, int, bool) {
		rl.SetPrompt(strengthPrompt(line, prefix))
		rl.Refresh()
		return nil, 0, false
	})

	return cfg
}

// PromptNewPassword reads a fresh password from the terminal.
//
// The prompt colors itself by the zxcvbn strength of what was typed so
// far and displays the current entropy estimate. Passwords below
// `minEntropy` bits are rejected and asked for again; accepted ones
// have to be retyped once to catch typos.
func PromptNewPassword(minEntropy float64) ([]byte, error) {
	rl, err := readline.New("")
	if err != nil {
		return nil, err
	}
	defer util.Closer(rl)

	var password []byte
	for {
		password, err = rl.ReadPasswordWithConfig(strengthConfig(rl, "New "))
		if err != nil {
			return nil, err
		}

		strength := zxcvbn.PasswordStrength(string(password), nil)
		if strength.Entropy >= minEntropy {
			break
		}

		fmt.Printf(
			color.YellowString("\nPlease use a password with at least %g bits entropy.")+"\n",
			minEntropy,
		)
	}

	fmt.Println(color.GreenString("\nWell done! Please re-type your password now:"))

	for {
		retyped, err := rl.ReadPasswordWithConfig(strengthConfig(rl, "Retype "))
		if err != nil {
			return nil, err
		}

		if bytes.Equal(password, retyped) {
			return password, nil
		}

		fmt.Println(color.YellowString("\nThis did not seem to match. Please retype it again."))
	}
}

// PromptPassword asks for an existing password, without any strength
// feedback. The input is not echoed.
func PromptPassword() (string, error) {
	prompt := "Password: "
	rl, err := readline.New(prompt)
	if err != nil {
		return "", err
	}
	defer util.Closer(rl)

	password, err := rl.ReadPassword(prompt)
	if err != nil {
		return "", err
	}

	return string(password), nil
}
