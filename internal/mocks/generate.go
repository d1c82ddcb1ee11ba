package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name ScoreSource --dir ../usecase --output usecase --outpkg usecasemock --filename score_source_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name ReplaySource --dir ../usecase --output usecase --outpkg usecasemock --filename replay_source_mock.go
