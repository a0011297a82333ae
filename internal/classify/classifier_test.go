package classify

import "testing"

func TestIsActionable(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"open excel", true},
		{"launch the browser", true},
		{"check disk usage", true},
		{"show me the files", true},
		{"search for golang tutorials", true},
		{"compile my paper", true},
		{"git status", true},
		{"list running processes", true},
		{"hello", false},
		{"hi there", false},
		{"what can you do?", false},
		{"thanks a lot", false},
		{"who are you", false},
		{"can you explain pointers?", false},
		{"explain how dns works", false},
		// Hedged phrasing without a command noun reads as opinion.
		{"I really think that went well today", false},
		{"do you believe that matters?", false},
		// Imperative start wins over the trailing question mark.
		{"open the report please", true},
		// Short text with no signal defaults to conversation.
		{"ok", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsActionable(tc.input); got != tc.want {
			t.Errorf("IsActionable(%q)=%v want %v", tc.input, got, tc.want)
		}
	}
}

func TestCommandRulesWinOverConversational(t *testing.T) {
	// Command patterns fire first, so a question-shaped utterance that
	// names processes or disk usage is still actionable.
	for _, input := range []string{
		"what processes are running?",
		"do you think check disk usage is useful?",
	} {
		if !IsActionable(input) {
			t.Errorf("IsActionable(%q)=false want true", input)
		}
	}
	// Without a command noun the same hedged shape stays conversational.
	if IsActionable("do you generally think it went well?") {
		t.Fatal("hedged question should stay conversational")
	}
}

func TestShortPhraseLengthCountsRunes(t *testing.T) {
	// 14 runes but 27 bytes; a byte count would call this long enough to
	// default to actionable.
	if IsActionable("открой браузер") {
		t.Fatal("14-rune phrase should default to conversational")
	}
	// Past the threshold in runes as well, the default flips.
	if !IsActionable("покажи мне погоду сейчас") {
		t.Fatal("24-rune phrase should default to actionable")
	}
}
