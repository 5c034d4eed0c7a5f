// Package nickname generates display names for players who join without one.
package nickname

import (
	"crypto/rand"
	"math/big"
	"strings"
)

var adjectives = []string{
	"happy", "sunny", "brave", "bright", "cool", "swift", "clever", "jolly",
	"mighty", "super", "wild", "funny", "lucky", "magic", "bouncy", "cheerful",
	"daring", "eager", "gentle", "jazzy", "lively", "merry", "noble", "perky",
	"quick", "royal", "snappy", "zippy", "bold", "cosmic", "epic", "groovy",
}

var nouns = []string{
	"dragon", "tiger", "eagle", "dolphin", "panda", "lion", "wolf", "bear",
	"fox", "hawk", "shark", "phoenix", "unicorn", "rocket", "ninja", "wizard",
	"knight", "pirate", "robot", "astronaut", "captain", "explorer", "ranger", "comet",
	"otter", "badger", "falcon", "koala", "lynx", "owl", "raven", "walrus",
}

// Generate returns a random name such as "Brave Dragon"
func Generate() (string, error) {
	adjective, err := randomElement(adjectives)
	if err != nil {
		return "", err
	}

	noun, err := randomElement(nouns)
	if err != nil {
		return "", err
	}

	return capitalize(adjective) + " " + capitalize(noun), nil
}

func randomElement(slice []string) (string, error) {
	num, err := rand.Int(rand.Reader, big.NewInt(int64(len(slice))))
	if err != nil {
		return "", err
	}
	return slice[num.Int64()], nil
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
