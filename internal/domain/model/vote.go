package model

type VoteTarget string

const (
	VoteTargetMeme    VoteTarget = "meme"
	VoteTargetAirdrop VoteTarget = "airdrop"
	VoteTargetPresale VoteTarget = "presale"
)

func (t VoteTarget) Valid() bool {
	return t == VoteTargetMeme || t == VoteTargetAirdrop || t == VoteTargetPresale
}

type VoteResult struct {
	Score     int64 `json:"score"`
	UserValue int   `json:"user_value"`
}
