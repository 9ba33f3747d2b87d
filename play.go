package playqueue

// PlayFile — упрощенная функция для разового проигрывания: создает синк,
// загружает файл и сразу запускает его. Конец трека можно ждать через Done.
func PlayFile(path string, opts ...Option) (*Sink, error) {
	s := NewSink(opts...)
	if err := s.LoadAudio(path, false); err != nil {
		return nil, err
	}
	if err := s.Play(); err != nil {
		return nil, err
	}
	return s, nil
}

// PlayFileWithEffects проигрывает файл с заранее запланированными эффектами,
// например FadeIn(time.Second) на старте.
func PlayFileWithEffects(path string, effects []Effect, opts ...Option) (*Sink, error) {
	s := NewSink(opts...)
	if err := s.LoadAudio(path, false); err != nil {
		return nil, err
	}
	if err := s.ApplyEffects(effects); err != nil {
		return nil, err
	}
	if err := s.Play(); err != nil {
		return nil, err
	}
	return s, nil
}
