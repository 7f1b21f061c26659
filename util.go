package main

// maxNickLength is the recommended bound from spec.md section 4.4's NICK
// handler: length bounded (recommend <= 30).
const maxNickLength = 30

// 50 from RFC.
const maxChannelLength = 50

// Arbitrary. Something low enough we won't hit message limit.
const maxTopicLength = 300

// nickSpecialChars are the characters permitted as the first character of a
// nickname, beyond letters.
const nickSpecialChars = "[]{}\\|^_-"

// isValidNick checks if a nickname is valid: first character must be a
// letter or one of nickSpecialChars; subsequent characters may additionally
// be digits; length bounded by maxNickLength.
func isValidNick(n string) bool {
	if len(n) == 0 || len(n) > maxNickLength {
		return false
	}

	for i, char := range n {
		if isLetter(char) || isNickSpecial(char) {
			continue
		}

		if i > 0 && char >= '0' && char <= '9' {
			continue
		}

		return false
	}

	return true
}

func isLetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNickSpecial(c rune) bool {
	for _, s := range nickSpecialChars {
		if c == s {
			return true
		}
	}
	return false
}

// isValidChannel checks a channel name for validity: must begin with '#',
// be non-empty after it, contain no space, no comma, and no control byte,
// and be no longer than maxChannelLength.
func isValidChannel(c string) bool {
	if len(c) < 2 || len(c) > maxChannelLength {
		return false
	}

	if c[0] != '#' {
		return false
	}

	for _, char := range c[1:] {
		if char == ' ' || char == ',' || char < 0x20 || char == 0x7f {
			return false
		}
	}

	return true
}
