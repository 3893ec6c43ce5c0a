// cmd/simulate/main.go plays matches between four COM seats and prints the
// outcome. It is a quick way to watch the rules engine and the COM policy
// interact without a server.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jason-s-yu/meitra/internal/autoplay"
	"github.com/jason-s-yu/meitra/internal/engine"
	"github.com/pterm/pterm"
)

func main() {
	matches := flag.Int("matches", 20, "number of matches to play")
	seed := flag.Int64("seed", time.Now().UnixNano(), "seed of the first match; match i uses seed+i")
	points := flag.Float64("points", engine.DefaultPointsToWin, "points to win")
	rounds := flag.Int("rounds", 100, "rounds after which a match is abandoned")
	credit := flag.Bool("credit", true, "credit opponents when a declaration fails")
	pass := flag.Bool("pass", false, "COM seats never bid")
	verbose := flag.Bool("v", false, "print every round")
	flag.Parse()

	rules := engine.DefaultRules()
	rules.PointsToWin = *points
	rules.CreditOpponentsOnFailure = *credit
	policy := autoplay.Policy{Bid: !*pass}

	pterm.DefaultHeader.WithFullWidth().Println("Mei-Tra COM simulation")
	pterm.Info.Printfln("%d matches from seed %d, %.1f points to win", *matches, *seed, *points)

	bar, _ := pterm.DefaultProgressbar.WithTotal(*matches).WithTitle("Playing").Start()
	var summaries []matchSummary
	for i := 0; i < *matches; i++ {
		sum, err := runMatch(*seed+int64(i), rules, policy, *rounds)
		bar.Increment()
		if err != nil {
			bar.Stop()
			pterm.Error.Println(err)
			os.Exit(1)
		}
		summaries = append(summaries, sum)
	}
	bar.Stop()

	if *verbose {
		for _, s := range summaries {
			printRounds(s)
		}
	}
	printMatches(summaries)
	printTotals(summaries)
}

func printRounds(s matchSummary) {
	pterm.DefaultSection.Printfln("Seed %d", s.Seed)
	data := pterm.TableData{{"Round", "Trump", "Team", "Declared", "Won", "Points", "Scores"}}
	for _, r := range s.Results {
		data = append(data, []string{
			fmt.Sprint(r.Round),
			r.Trump.String(),
			fmt.Sprint(r.DeclaringTeam),
			fmt.Sprint(r.DeclaredPairs),
			fmt.Sprint(r.TricksWon),
			fmt.Sprintf("%+.1f", r.Points),
			fmt.Sprintf("%.1f / %.1f", r.Scores[0], r.Scores[1]),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printMatches(summaries []matchSummary) {
	pterm.DefaultSection.Println("Matches")
	data := pterm.TableData{{"Seed", "Rounds", "Winner", "Scores", "Cancelled", "Broken"}}
	for _, s := range summaries {
		winner := pterm.LightRed("unfinished")
		if s.Finished {
			winner = pterm.LightGreen(fmt.Sprintf("team %d", s.WinningTeam))
		}
		data = append(data, []string{
			fmt.Sprint(s.Seed),
			fmt.Sprint(s.Rounds),
			winner,
			fmt.Sprintf("%.1f / %.1f", s.Scores[0], s.Scores[1]),
			fmt.Sprint(s.Cancelled),
			fmt.Sprint(s.Broken),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printTotals(summaries []matchSummary) {
	var wins [2]int
	var rounds, made, unfinished int
	trumps := make(map[engine.TrumpType]int)
	for _, s := range summaries {
		rounds += s.Rounds
		made += s.Made
		if !s.Finished {
			unfinished++
		} else {
			wins[s.WinningTeam]++
		}
		for t, n := range s.Trumps {
			trumps[t] += n
		}
	}

	pterm.DefaultSection.Println("Totals")
	bars := pterm.Bars{}
	for _, t := range []engine.TrumpType{engine.TrumpTra, engine.TrumpHerz, engine.TrumpDaiya, engine.TrumpClub, engine.TrumpZuppe} {
		bars = append(bars, pterm.Bar{Label: t.String(), Value: trumps[t]})
	}
	pterm.DefaultBarChart.WithBars(bars).WithHorizontal().WithShowValue().Render()

	made100 := 0.0
	if rounds > 0 {
		made100 = 100 * float64(made) / float64(rounds)
	}
	pterm.Info.Printfln("team 0 won %d, team 1 won %d, %d unfinished", wins[0], wins[1], unfinished)
	pterm.Info.Printfln("%d rounds played, %.1f%% of declarations made", rounds, made100)
}
