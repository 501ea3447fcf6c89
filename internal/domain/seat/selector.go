package seat

import "math/rand"

// Choose は候補座席から count 席を選択する
// 候補が不足する場合は nil を返し、部分的な選択は行わない（全取得か失敗か）
// 選択はランダムな開始位置から順に走査し、末尾で先頭に折り返す
func Choose(candidates []*Seat, count int) []*Seat {
	if count <= 0 || len(candidates) < count {
		return nil
	}
	return chooseFrom(rand.Intn(len(candidates)), count, candidates)
}

// chooseFrom は startIndex から折り返しつつ count 席を取り出す
func chooseFrom(startIndex, count int, candidates []*Seat) []*Seat {
	chosen := make([]*Seat, 0, count)
	for len(chosen) < count {
		if startIndex > len(candidates)-1 {
			startIndex = 0
		}
		chosen = append(chosen, candidates[startIndex])
		startIndex++
	}
	return chosen
}
